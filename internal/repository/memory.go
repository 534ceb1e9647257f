package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prathamsaiya01/apna-adda-1/internal/errs"
	"github.com/prathamsaiya01/apna-adda-1/internal/model"
)

// Memory is an in-process RoomRepository. It backs the service when no
// database is configured and is the fixture for tests.
type Memory struct {
	mu     sync.RWMutex
	rooms  map[string]*model.Room // by id
	byCode map[string]string      // normalized code -> id
	seq    int64                  // creation order for List
	order  map[string]int64
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		rooms:  make(map[string]*model.Room),
		byCode: make(map[string]string),
		order:  make(map[string]int64),
	}
}

func (m *Memory) Create(_ context.Context, room *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[room.Code]; ok {
		return errs.Conflict("room code already in use")
	}
	if _, ok := m.rooms[room.ID]; ok {
		return errs.Conflict("room id already in use")
	}
	m.seq++
	m.order[room.ID] = m.seq
	m.rooms[room.ID] = room.Clone()
	m.byCode[room.Code] = room.ID
	return nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, errs.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (m *Memory) FindByCode(_ context.Context, code string) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, errs.ErrRoomNotFound
	}
	return m.rooms[id].Clone(), nil
}

func (m *Memory) List(_ context.Context, gameKey string) ([]model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		if gameKey != "" && room.GameKey != gameKey {
			continue
		}
		out = append(out, *room.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return m.order[out[i].ID] > m.order[out[j].ID]
	})
	return out, nil
}

func (m *Memory) Update(_ context.Context, id string, mutate func(room *model.Room) error) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, errs.ErrRoomNotFound
	}
	next := room.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now()
	m.rooms[id] = next
	return next.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return errs.ErrRoomNotFound
	}
	delete(m.byCode, room.Code)
	delete(m.rooms, id)
	delete(m.order, id)
	return nil
}

func (m *Memory) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byCode[code]
	return ok, nil
}
