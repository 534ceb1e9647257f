package service

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Peer represents one live WebSocket connection. Send is never closed:
// a broadcaster may still hold a reference to a peer that was dropped
// concurrently, and sending to a closed channel would panic. The write
// pump exits via Done instead.
type Peer struct {
	ConnID string
	Conn   *websocket.Conn // nil in tests
	Send   chan []byte
	Done   chan struct{}
}

// Event is the server-pushed message envelope.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks live connections and which rooms each one subscribes to, and
// fans room events out to subscribers. Entirely in-memory: on restart all
// subscriptions are gone and clients re-establish them by re-joining.
type Hub struct {
	mu       sync.RWMutex
	peers    map[string]*Peer               // connID -> peer
	rooms    map[string]map[string]struct{} // roomID -> set of connIDs
	byConn   map[string]map[string]struct{} // connID -> set of roomIDs
	sendBuf  int
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub creates a hub.
func NewHub(readBufferSize, writeBufferSize int, log *zap.Logger) *Hub {
	return &Hub{
		peers:   make(map[string]*Peer),
		rooms:   make(map[string]map[string]struct{}),
		byConn:  make(map[string]map[string]struct{}),
		sendBuf: 256,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *Hub) Upgrader() *websocket.Upgrader { return &h.upgrader }

// AddPeer registers a connection and returns its peer record plus a cleanup
// function that drops the connection and all of its subscriptions.
func (h *Hub) AddPeer(connID string, conn *websocket.Conn) (*Peer, func()) {
	p := &Peer{
		ConnID: connID,
		Conn:   conn,
		Send:   make(chan []byte, h.sendBuf),
		Done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.peers[connID] = p
	h.mu.Unlock()

	h.log.Info("peer connected", zap.String("conn_id", connID))
	return p, func() { h.DropConnection(connID) }
}

// Subscribe adds the connection to the room's audience. Idempotent.
func (h *Hub) Subscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[connID]; !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]struct{})
	}
	h.rooms[roomID][connID] = struct{}{}
	if h.byConn[connID] == nil {
		h.byConn[connID] = make(map[string]struct{})
	}
	h.byConn[connID][roomID] = struct{}{}
}

// Unsubscribe removes the connection from the room's audience.
func (h *Hub) Unsubscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeSubscription(connID, roomID)
}

// DropConnection removes the peer and every subscription it held. Called
// when the transport reports disconnect.
func (h *Hub) DropConnection(connID string) {
	h.mu.Lock()
	p, ok := h.peers[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, connID)
	for roomID := range h.byConn[connID] {
		h.removeSubscription(connID, roomID)
	}
	h.mu.Unlock()

	close(p.Done)
	h.log.Info("peer disconnected", zap.String("conn_id", connID))
}

// Subscribers returns the connection ids subscribed to a room.
func (h *Hub) Subscribers(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[roomID]))
	for connID := range h.rooms[roomID] {
		out = append(out, connID)
	}
	return out
}

// CloseRoom drops every subscription to a room. Subscribers keep their
// connections; their next command against the room id yields not-found.
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID := range h.rooms[roomID] {
		delete(h.byConn[connID], roomID)
		if len(h.byConn[connID]) == 0 {
			delete(h.byConn, connID)
		}
	}
	delete(h.rooms, roomID)
}

// Broadcast sends a named event to every subscriber of a room. Delivery is
// best-effort per recipient: a slow or gone peer never blocks the rest.
func (h *Hub) Broadcast(roomID, event string, data interface{}) {
	raw, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		h.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	peers := make([]*Peer, 0, len(h.rooms[roomID]))
	for connID := range h.rooms[roomID] {
		if p, ok := h.peers[connID]; ok {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range peers {
		select {
		case p.Send <- raw:
		default:
			h.log.Warn("subscriber send buffer full, dropping event",
				zap.String("conn_id", p.ConnID),
				zap.String("room_id", roomID),
				zap.String("event", event))
		}
	}
}

// Ack sends a point-to-point payload to one connection, independent of any
// broadcast audience.
func (h *Hub) Ack(connID string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal ack", zap.Error(err))
		return
	}
	h.mu.RLock()
	p, ok := h.peers[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case p.Send <- raw:
	default:
		h.log.Warn("ack dropped, send buffer full", zap.String("conn_id", connID))
	}
}

// PeerCount returns the number of live connections (for debugging).
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// removeSubscription must be called with mu held.
func (h *Hub) removeSubscription(connID, roomID string) {
	if m, ok := h.rooms[roomID]; ok {
		delete(m, connID)
		if len(m) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if m, ok := h.byConn[connID]; ok {
		delete(m, roomID)
		if len(m) == 0 {
			delete(h.byConn, connID)
		}
	}
}
