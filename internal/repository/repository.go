// Package repository defines the durable store behind the room core.
package repository

import (
	"context"

	"github.com/prathamsaiya01/apna-adda-1/internal/model"
)

// RoomRepository is the narrow storage interface the room service depends on.
// Implementations must return errs.ErrRoomNotFound for missing ids/codes and
// an errs conflict error when a code collides with an existing room.
type RoomRepository interface {
	// Create persists a new room. The caller supplies id and code.
	Create(ctx context.Context, room *model.Room) error

	// FindByID returns the room with the given id.
	FindByID(ctx context.Context, id string) (*model.Room, error)

	// FindByCode returns the room with the given join code. The code must
	// already be normalized to uppercase.
	FindByCode(ctx context.Context, code string) (*model.Room, error)

	// List returns rooms, newest first. Empty gameKey means all rooms.
	List(ctx context.Context, gameKey string) ([]model.Room, error)

	// Update runs mutate against the current room state and persists the
	// result as one atomic read-modify-write. If mutate returns an error the
	// room is left untouched and that error is returned.
	Update(ctx context.Context, id string, mutate func(room *model.Room) error) (*model.Room, error)

	// Delete removes the room.
	Delete(ctx context.Context, id string) error

	// CodeExists reports whether a room with the given code exists.
	CodeExists(ctx context.Context, code string) (bool, error)
}
