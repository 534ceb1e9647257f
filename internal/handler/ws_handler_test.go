package handler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prathamsaiya01/apna-adda-1/internal/model"
	"github.com/prathamsaiya01/apna-adda-1/internal/repository"
	"github.com/prathamsaiya01/apna-adda-1/internal/service"
)

func newWSFixture(t *testing.T) (*RoomWSHandler, *service.RoomService, *service.Peer) {
	t.Helper()
	hub := service.NewHub(1024, 1024, zap.NewNop())
	svc := service.NewRoomService(repository.NewMemory(), hub, zap.NewNop(), 4, 10)
	h := NewRoomWSHandler(svc, zap.NewNop(), 100, 100, 0)
	peer, _ := hub.AddPeer("c1", nil)
	return h, svc, peer
}

func recvJSON(t *testing.T, p *service.Peer) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-p.Send:
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func cmdJSON(action, requestID string, data interface{}) []byte {
	raw, _ := json.Marshal(data)
	b, _ := json.Marshal(Command{Action: action, RequestID: requestID, Data: raw})
	return b
}

func TestDispatchJoinRoom(t *testing.T) {
	h, svc, peer := newWSFixture(t)
	room, err := svc.CreateRoom(context.Background(), model.CreateRoomRequest{Name: "Test", GameKey: "spy-game", HostID: "h1"})
	require.NoError(t, err)

	h.dispatch(context.Background(), "c1", nil, cmdJSON("joinRoom", "r1", map[string]string{
		"code": room.Code, "userId": "u1", "name": "Alice",
	}))

	// Subscription happens before the ack is queued, so the snapshot
	// broadcast arrives first.
	update := recvJSON(t, peer)
	assert.Equal(t, "roomUpdate", update["event"])

	ack := recvJSON(t, peer)
	assert.Equal(t, "r1", ack["requestId"])
	assert.Equal(t, true, ack["ok"])
	assert.Equal(t, room.ID, ack["roomId"])
	assert.Equal(t, room.Code, ack["code"])
}

func TestDispatchJoinRoomNotFound(t *testing.T) {
	h, _, peer := newWSFixture(t)

	h.dispatch(context.Background(), "c1", nil, cmdJSON("joinRoom", "r1", map[string]string{
		"code": "ZZZZZZ", "userId": "u1", "name": "Alice",
	}))

	ack := recvJSON(t, peer)
	assert.Equal(t, false, ack["ok"])
	errObj := ack["error"].(map[string]interface{})
	assert.Equal(t, "not_found", errObj["kind"])
	assert.Equal(t, "Room not found", errObj["message"])
}

func TestDispatchStartRoom(t *testing.T) {
	h, svc, peer := newWSFixture(t)
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, model.CreateRoomRequest{Name: "Test", GameKey: "spy-game", HostID: "h1"})
	require.NoError(t, err)
	_, _ = svc.Join(ctx, room.Code, "u1", "Alice", "")
	_, _ = svc.Join(ctx, room.Code, "u2", "Bob", "")

	h.dispatch(ctx, "c1", nil, cmdJSON("startRoom", "r2", map[string]string{"roomId": room.ID}))
	ack := recvJSON(t, peer)
	assert.Equal(t, true, ack["ok"])

	// second start is rejected, not ignored
	h.dispatch(ctx, "c1", nil, cmdJSON("startRoom", "r3", map[string]string{"roomId": room.ID}))
	ack = recvJSON(t, peer)
	assert.Equal(t, false, ack["ok"])
	errObj := ack["error"].(map[string]interface{})
	assert.Equal(t, "already_started", errObj["kind"])
}

func TestDispatchLeaveRoom(t *testing.T) {
	h, svc, peer := newWSFixture(t)
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, model.CreateRoomRequest{Name: "Test", GameKey: "spy-game", HostID: "h1"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.Code, "u1", "Alice", "c1")
	require.NoError(t, err)
	recvJSON(t, peer) // join snapshot

	h.dispatch(ctx, "c1", nil, cmdJSON("leaveRoom", "r4", map[string]string{"roomId": room.ID, "userId": "u1"}))

	update := recvJSON(t, peer) // final snapshot before unsubscribe
	assert.Equal(t, "roomUpdate", update["event"])
	ack := recvJSON(t, peer)
	assert.Equal(t, true, ack["ok"])

	got, err := svc.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Players)
}

func TestDispatchMalformedAndUnknown(t *testing.T) {
	h, _, peer := newWSFixture(t)
	ctx := context.Background()

	cases := [][]byte{
		[]byte("{not json"),
		cmdJSON("joinRoom", "r1", "not-an-object"),
		cmdJSON("teleport", "r2", map[string]string{}),
	}
	for i, raw := range cases {
		h.dispatch(ctx, "c1", nil, raw)
		ack := recvJSON(t, peer)
		require.Equal(t, false, ack["ok"], "case %d", i)
		errObj := ack["error"].(map[string]interface{})
		assert.Equal(t, "validation", errObj["kind"], "case %d", i)
	}

	// Missing required fields inside a well-formed payload.
	h.dispatch(ctx, "c1", nil, cmdJSON("joinRoom", "r5", map[string]string{"code": "ABC234"}))
	ack := recvJSON(t, peer)
	errObj := ack["error"].(map[string]interface{})
	assert.Equal(t, "validation", errObj["kind"])
	assert.Equal(t, "code, userId, name required", errObj["message"])
}

func TestDispatchRateLimitedCommandIsAcked(t *testing.T) {
	h, svc, peer := newWSFixture(t)
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, model.CreateRoomRequest{Name: "Test", GameKey: "spy-game", HostID: "h1"})
	require.NoError(t, err)

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)

	join := cmdJSON("joinRoom", "r1", map[string]string{
		"code": room.Code, "userId": "u1", "name": "Alice",
	})
	h.dispatch(ctx, "c1", limiter, join)
	recvJSON(t, peer) // join snapshot
	ack := recvJSON(t, peer)
	require.Equal(t, true, ack["ok"])

	// Burst exhausted; the rejection still carries the client's request id.
	h.dispatch(ctx, "c1", limiter, cmdJSON("startRoom", "r2", map[string]string{"roomId": room.ID}))
	ack = recvJSON(t, peer)
	assert.Equal(t, "r2", ack["requestId"])
	assert.Equal(t, false, ack["ok"])
	errObj := ack["error"].(map[string]interface{})
	assert.Equal(t, "rate_limited", errObj["kind"])
	assert.Equal(t, "Too many commands, slow down", errObj["message"])

	// The room itself was untouched.
	got, err := svc.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusWaiting, got.Status)
}
