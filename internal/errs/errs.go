// Package errs holds the domain error taxonomy mapped to HTTP codes and
// acknowledgement payloads in handlers.
package errs

import (
	"errors"
	"net/http"
)

// Kind is a stable machine-readable error category.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindRoomFull            Kind = "room_full"
	KindAlreadyStarted      Kind = "already_started"
	KindInsufficientPlayers Kind = "insufficient_players"
	KindRateLimited         Kind = "rate_limited"
	KindInternal            Kind = "internal"
)

// Error is a domain error with a stable kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches two domain errors by kind, so sentinel comparisons with
// errors.Is work across separately constructed instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }
func Internal(msg string) *Error   { return &Error{Kind: KindInternal, Message: msg} }

// Sentinel errors for the room lifecycle.
var (
	ErrRoomNotFound        = &Error{Kind: KindNotFound, Message: "Room not found"}
	ErrRoomFull            = &Error{Kind: KindRoomFull, Message: "Room is full"}
	ErrRoomAlreadyStarted  = &Error{Kind: KindAlreadyStarted, Message: "Room already started"}
	ErrInsufficientPlayers = &Error{Kind: KindInsufficientPlayers, Message: "Need at least 2 players to start"}
	ErrCodeExhausted       = &Error{Kind: KindConflict, Message: "could not allocate a unique room code"}
	ErrTooManyCommands     = &Error{Kind: KindRateLimited, Message: "Too many commands, slow down"}
)

// KindOf extracts the kind from err, defaulting to internal for
// storage/transport failures that carry no domain kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message for err. Non-domain errors are
// masked so storage details never leak to clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Server error"
}

// HTTPStatus maps an error kind to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindRoomFull, KindAlreadyStarted, KindInsufficientPlayers:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
