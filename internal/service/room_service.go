package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prathamsaiya01/apna-adda-1/internal/code"
	"github.com/prathamsaiya01/apna-adda-1/internal/errs"
	"github.com/prathamsaiya01/apna-adda-1/internal/model"
	"github.com/prathamsaiya01/apna-adda-1/internal/repository"
)

// Event names pushed to room subscribers.
const (
	EventRoomUpdate   = "roomUpdate"
	EventRoomStarted  = "roomStarted"
	EventRoomFinished = "roomFinished"
)

// MinPlayersToStart is the floor for the waiting -> active transition.
const MinPlayersToStart = 2

// StartedPayload is the roomStarted lifecycle event body.
type StartedPayload struct {
	RoomID  string `json:"roomId"`
	GameKey string `json:"gameKey"`
	Code    string `json:"code"`
}

// FinishedPayload is the roomFinished lifecycle event body. Outcome is
// whatever the mini-game layer reported, passed through untouched.
type FinishedPayload struct {
	RoomID  string          `json:"roomId"`
	Code    string          `json:"code"`
	Outcome json.RawMessage `json:"outcome,omitempty"`
}

// RoomService owns every business-rule mutation of a room: membership,
// capacity, and the waiting -> active -> finished lifecycle. All mutations
// on one room serialize through a per-room lock; the broadcast happens after
// the store commit, still under that lock, so subscribers observe events in
// commit order.
type RoomService struct {
	repo  repository.RoomRepository
	hub   *Hub
	log   *zap.Logger
	locks *roomLocks

	defaultMaxPlayers int
	codeAttempts      int
}

// NewRoomService creates a room service.
func NewRoomService(repo repository.RoomRepository, hub *Hub, log *zap.Logger, defaultMaxPlayers, codeAttempts int) *RoomService {
	if defaultMaxPlayers <= 0 {
		defaultMaxPlayers = 4
	}
	if codeAttempts <= 0 {
		codeAttempts = 10
	}
	return &RoomService{
		repo:              repo,
		hub:               hub,
		log:               log,
		locks:             newRoomLocks(),
		defaultMaxPlayers: defaultMaxPlayers,
		codeAttempts:      codeAttempts,
	}
}

// Hub exposes the hub for the transport layer.
func (s *RoomService) Hub() *Hub { return s.hub }

// CreateRoom validates the request, allocates a unique join code and
// persists a new waiting room. Code allocation is check-and-retry, capped;
// exhaustion surfaces as a conflict.
func (s *RoomService) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.Room, error) {
	if req.Name == "" || req.GameKey == "" || req.HostID == "" {
		return nil, errs.Validation("name, gameKey, hostId required")
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = s.defaultMaxPlayers
	}

	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		c, err := code.Generate()
		if err != nil {
			return nil, err
		}
		exists, err := s.repo.CodeExists(ctx, c)
		if err != nil {
			return nil, err
		}
		if exists {
			s.log.Warn("room code collision, retrying",
				zap.String("code", c), zap.Int("attempt", attempt+1))
			continue
		}

		now := time.Now()
		room := &model.Room{
			ID:         uuid.New().String(),
			Code:       c,
			Name:       req.Name,
			GameKey:    req.GameKey,
			MaxPlayers: maxPlayers,
			HostID:     req.HostID,
			Status:     model.RoomStatusWaiting,
			Players:    []model.Player{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err = s.repo.Create(ctx, room)
		if errors.Is(err, &errs.Error{Kind: errs.KindConflict}) {
			// Lost the race between CodeExists and Create.
			continue
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("room created",
			zap.String("room_id", room.ID),
			zap.String("code", room.Code),
			zap.String("game_key", room.GameKey))
		return room, nil
	}
	return nil, errs.ErrCodeExhausted
}

// Join adds userID to the room identified by joinCode and subscribes connID
// to its events. Re-joining with the same userID is a no-op that still
// returns the snapshot and still subscribes — that is how reconnects work.
func (s *RoomService) Join(ctx context.Context, joinCode, userID, name, connID string) (*model.Room, error) {
	if joinCode == "" || userID == "" || name == "" {
		return nil, errs.Validation("code, userId, name required")
	}
	room, err := s.repo.FindByCode(ctx, code.Normalize(joinCode))
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(room.ID)
	defer unlock()

	// Re-read under the lock; the pre-lock read only resolved code -> id.
	room, err = s.repo.FindByID(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	if !room.HasPlayer(userID) {
		room, err = s.repo.Update(ctx, room.ID, func(r *model.Room) error {
			if r.HasPlayer(userID) {
				return nil
			}
			if len(r.Players) >= r.MaxPlayers {
				return errs.ErrRoomFull
			}
			r.Players = append(r.Players, model.Player{
				UserID:   userID,
				Name:     name,
				JoinedAt: time.Now(),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("player joined",
			zap.String("room_id", room.ID),
			zap.String("user_id", userID),
			zap.Int("players", len(room.Players)))
	}

	if connID != "" {
		s.hub.Subscribe(connID, room.ID)
	}
	s.hub.Broadcast(room.ID, EventRoomUpdate, room)
	return room, nil
}

// Start moves a waiting room to active. Rejected, not ignored, on a room
// that already started, so callers can tell "already running" from success.
// callerID is recorded for logging only; host authorization is not enforced.
func (s *RoomService) Start(ctx context.Context, roomID, callerID string) error {
	if roomID == "" {
		return errs.Validation("roomId required")
	}
	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.repo.Update(ctx, roomID, func(r *model.Room) error {
		if r.Status != model.RoomStatusWaiting {
			return errs.ErrRoomAlreadyStarted
		}
		if len(r.Players) < MinPlayersToStart {
			return errs.ErrInsufficientPlayers
		}
		r.Status = model.RoomStatusActive
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("room started",
		zap.String("room_id", roomID),
		zap.String("caller_id", callerID),
		zap.String("game_key", room.GameKey))
	s.hub.Broadcast(roomID, EventRoomStarted, StartedPayload{
		RoomID:  roomID,
		GameKey: room.GameKey,
		Code:    room.Code,
	})
	return nil
}

// Finish moves an active room to finished. Called by the mini-game layer
// when the game concludes; outcome is opaque and forwarded to subscribers.
func (s *RoomService) Finish(ctx context.Context, roomID string, outcome json.RawMessage) error {
	if roomID == "" {
		return errs.Validation("roomId required")
	}
	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.repo.Update(ctx, roomID, func(r *model.Room) error {
		switch r.Status {
		case model.RoomStatusActive:
			r.Status = model.RoomStatusFinished
			return nil
		case model.RoomStatusWaiting:
			return errs.Conflict("Room has not started")
		default:
			return errs.Conflict("Room already finished")
		}
	})
	if err != nil {
		return err
	}

	s.log.Info("room finished", zap.String("room_id", roomID))
	s.hub.Broadcast(roomID, EventRoomFinished, FinishedPayload{
		RoomID:  roomID,
		Code:    room.Code,
		Outcome: outcome,
	})
	return nil
}

// Leave removes userID from the room's membership while the room is still
// waiting; once the game started, membership is frozen and leave only drops
// the subscription.
func (s *RoomService) Leave(ctx context.Context, roomID, userID, connID string) error {
	if roomID == "" || userID == "" {
		return errs.Validation("roomId, userId required")
	}
	if connID != "" {
		defer s.hub.Unsubscribe(connID, roomID)
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	removed := false
	room, err := s.repo.Update(ctx, roomID, func(r *model.Room) error {
		if r.Status != model.RoomStatusWaiting || !r.HasPlayer(userID) {
			return nil
		}
		players := r.Players[:0]
		for _, p := range r.Players {
			if p.UserID != userID {
				players = append(players, p)
			}
		}
		r.Players = players
		removed = true
		return nil
	})
	if err != nil {
		return err
	}
	if removed {
		s.log.Info("player left",
			zap.String("room_id", roomID),
			zap.String("user_id", userID))
		s.hub.Broadcast(roomID, EventRoomUpdate, room)
	}
	return nil
}

// Delete removes the room record and invalidates every subscription to it.
func (s *RoomService) Delete(ctx context.Context, roomID string) error {
	if roomID == "" {
		return errs.Validation("roomId required")
	}
	unlock := s.locks.lock(roomID)
	defer unlock()

	if err := s.repo.Delete(ctx, roomID); err != nil {
		return err
	}
	s.hub.CloseRoom(roomID)
	s.log.Info("room deleted", zap.String("room_id", roomID))
	return nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, roomID string) (*model.Room, error) {
	return s.repo.FindByID(ctx, roomID)
}

// GetByCode returns a room by join code, case-insensitively.
func (s *RoomService) GetByCode(ctx context.Context, joinCode string) (*model.Room, error) {
	return s.repo.FindByCode(ctx, code.Normalize(joinCode))
}

// List returns rooms, newest first, optionally filtered by gameKey.
func (s *RoomService) List(ctx context.Context, gameKey string) ([]model.Room, error) {
	return s.repo.List(ctx, gameKey)
}

// roomLocks hands out one mutex per room id so mutations on the same room
// serialize without serializing unrelated rooms. Entries are refcounted and
// pruned once the last holder unlocks, so the map stays bounded by the number
// of in-flight mutations rather than the number of rooms ever touched.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

func (l *roomLocks) lock(roomID string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[roomID]
	if !ok {
		e = &roomLock{}
		l.locks[roomID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}

// size reports the number of live entries, for tests.
func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
