package model

import (
	"encoding/json"
	"time"
)

// RoomStatus represents room lifecycle state.
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusActive   RoomStatus = "active"
	RoomStatusFinished RoomStatus = "finished"
)

// Rank orders statuses for the forward-only transition check
// (waiting < active < finished).
func (s RoomStatus) Rank() int {
	switch s {
	case RoomStatusWaiting:
		return 0
	case RoomStatusActive:
		return 1
	case RoomStatusFinished:
		return 2
	}
	return -1
}

// Room is the API view of a party-game room (not GORM entity).
type Room struct {
	ID         string     `json:"roomId"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	GameKey    string     `json:"gameKey"`
	MaxPlayers int        `json:"maxPlayers"`
	HostID     string     `json:"hostId"`
	Status     RoomStatus `json:"status"`
	Players    []Player   `json:"players"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Player is a member of a room, in join order.
type Player struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// HasPlayer reports whether userID is already a member.
func (r *Room) HasPlayer(userID string) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, so callers can't mutate shared state.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Players = make([]Player, len(r.Players))
	copy(cp.Players, r.Players)
	return &cp
}

// CreateRoomRequest is the request body for POST /api/rooms.
type CreateRoomRequest struct {
	Name       string `json:"name"`
	GameKey    string `json:"gameKey"`
	MaxPlayers int    `json:"maxPlayers"`
	HostID     string `json:"hostId"`
}

// FinishRoomRequest is the request body for POST /api/rooms/:id/finish.
// Outcome is opaque to the room core; the mini-game layer owns its shape.
type FinishRoomRequest struct {
	Outcome json.RawMessage `json:"outcome"`
}
