package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathamsaiya01/apna-adda-1/internal/errs"
	"github.com/prathamsaiya01/apna-adda-1/internal/model"
)

func newRoom(id, code, gameKey string) *model.Room {
	now := time.Now()
	return &model.Room{
		ID:         id,
		Code:       code,
		Name:       "Test",
		GameKey:    gameKey,
		MaxPlayers: 4,
		HostID:     "h1",
		Status:     model.RoomStatusWaiting,
		Players:    []model.Player{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMemoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Create(ctx, newRoom("id1", "ABC234", "spy-game")))

	byID, err := m.FindByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "ABC234", byID.Code)

	byCode, err := m.FindByCode(ctx, "ABC234")
	require.NoError(t, err)
	assert.Equal(t, "id1", byCode.ID)

	_, err = m.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)
}

func TestMemoryCreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Create(ctx, newRoom("id1", "ABC234", "spy-game")))

	err := m.Create(ctx, newRoom("id2", "ABC234", "spy-game"))
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	exists, err := m.CodeExists(ctx, "ABC234")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryListNewestFirstAndFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 3; i++ {
		r := newRoom(fmt.Sprintf("id%d", i), fmt.Sprintf("CODE%d", i), "spy-game")
		require.NoError(t, m.Create(ctx, r))
	}
	require.NoError(t, m.Create(ctx, newRoom("id9", "CODE9", "quiz")))

	all, err := m.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "id9", all[0].ID, "newest first")

	spy, err := m.List(ctx, "spy-game")
	require.NoError(t, err)
	require.Len(t, spy, 3)
	assert.Equal(t, "id2", spy[0].ID)
}

func TestMemoryUpdateAtomicAndIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Create(ctx, newRoom("id1", "ABC234", "spy-game")))

	updated, err := m.Update(ctx, "id1", func(r *model.Room) error {
		r.Players = append(r.Players, model.Player{UserID: "u1", Name: "Alice", JoinedAt: time.Now()})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.Players, 1)

	// A failed mutate leaves the room untouched.
	boom := errors.New("boom")
	_, err = m.Update(ctx, "id1", func(r *model.Room) error {
		r.Players = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := m.FindByID(ctx, "id1")
	require.NoError(t, err)
	assert.Len(t, got.Players, 1)

	// Mutating a returned copy must not leak into the store.
	got.Players[0].Name = "hacked"
	again, _ := m.FindByID(ctx, "id1")
	assert.Equal(t, "Alice", again.Players[0].Name)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Create(ctx, newRoom("id1", "ABC234", "spy-game")))

	require.NoError(t, m.Delete(ctx, "id1"))
	_, err := m.FindByID(ctx, "id1")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)
	_, err = m.FindByCode(ctx, "ABC234")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)

	assert.ErrorIs(t, m.Delete(ctx, "id1"), errs.ErrRoomNotFound)

	// The code is free for reuse after delete.
	require.NoError(t, m.Create(ctx, newRoom("id2", "ABC234", "spy-game")))
}
