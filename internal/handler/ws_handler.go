package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prathamsaiya01/apna-adda-1/internal/errs"
	"github.com/prathamsaiya01/apna-adda-1/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Command is the client -> server message envelope. Data is decoded into
// the payload type matching Action before anything reaches the room service.
type Command struct {
	Action    string          `json:"action"`
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data"`
}

// Command payloads, one per action.
type joinRoomPayload struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type startRoomPayload struct {
	RoomID string `json:"roomId"`
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// ackError is the error half of an acknowledgement.
type ackError struct {
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

// RoomWSHandler accepts persistent connections at GET /ws and routes the
// join/start/leave commands riding on them.
type RoomWSHandler struct {
	hub    *service.Hub
	svc    *service.RoomService
	logger *zap.Logger

	cmdRate  rate.Limit
	cmdBurst int
	readLim  int64
}

// NewRoomWSHandler creates the WebSocket command handler.
func NewRoomWSHandler(svc *service.RoomService, logger *zap.Logger, cmdPerSec float64, cmdBurst int, maxMessageSize int64) *RoomWSHandler {
	if cmdPerSec <= 0 {
		cmdPerSec = 10
	}
	if cmdBurst <= 0 {
		cmdBurst = 20
	}
	return &RoomWSHandler{
		hub:      svc.Hub(),
		svc:      svc,
		logger:   logger,
		cmdRate:  rate.Limit(cmdPerSec),
		cmdBurst: cmdBurst,
		readLim:  maxMessageSize,
	}
}

// ServeWS upgrades the request and runs the command loop. Each connection
// gets a server-assigned id; all subscription bookkeeping keys off it.
func (h *RoomWSHandler) ServeWS(c *gin.Context) {
	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.New().String()
	peer, cleanup := h.hub.AddPeer(connID, conn)
	defer cleanup()

	go h.writePump(peer)
	h.readPump(c.Request.Context(), peer)
}

func (h *RoomWSHandler) readPump(ctx context.Context, p *service.Peer) {
	defer func() {
		_ = p.Conn.Close()
	}()
	if h.readLim > 0 {
		p.Conn.SetReadLimit(h.readLim)
	}
	_ = p.Conn.SetReadDeadline(time.Now().Add(pongWait))
	p.Conn.SetPongHandler(func(string) error {
		return p.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(h.cmdRate, h.cmdBurst)
	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.String("conn_id", p.ConnID), zap.Error(err))
			}
			break
		}
		h.dispatch(ctx, p.ConnID, limiter, data)
	}
}

func (h *RoomWSHandler) writePump(p *service.Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.Conn.Close()
	}()
	for {
		select {
		case data := <-p.Send:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-p.Done:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch decodes one command envelope, validates its payload shape and
// calls into the room service. Every command is acknowledged point-to-point;
// errors never reach other subscribers. Rate-limited commands are rejected
// with an ack carrying the client's request id, never dropped silently.
func (h *RoomWSHandler) dispatch(ctx context.Context, connID string, limiter *rate.Limiter, data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		h.ackErr(connID, "", errs.Validation("malformed command"))
		return
	}

	if limiter != nil && !limiter.Allow() {
		h.logger.Warn("command rate exceeded", zap.String("conn_id", connID))
		h.ackErr(connID, cmd.RequestID, errs.ErrTooManyCommands)
		return
	}

	switch cmd.Action {
	case "joinRoom":
		var p joinRoomPayload
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			h.ackErr(connID, cmd.RequestID, errs.Validation("malformed joinRoom payload"))
			return
		}
		room, err := h.svc.Join(ctx, p.Code, p.UserID, p.Name, connID)
		if err != nil {
			h.ackErr(connID, cmd.RequestID, err)
			return
		}
		h.hub.Ack(connID, gin.H{
			"requestId": cmd.RequestID,
			"ok":        true,
			"roomId":    room.ID,
			"code":      room.Code,
		})

	case "startRoom":
		var p startRoomPayload
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			h.ackErr(connID, cmd.RequestID, errs.Validation("malformed startRoom payload"))
			return
		}
		if err := h.svc.Start(ctx, p.RoomID, connID); err != nil {
			h.ackErr(connID, cmd.RequestID, err)
			return
		}
		h.hub.Ack(connID, gin.H{"requestId": cmd.RequestID, "ok": true})

	case "leaveRoom":
		var p leaveRoomPayload
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			h.ackErr(connID, cmd.RequestID, errs.Validation("malformed leaveRoom payload"))
			return
		}
		if err := h.svc.Leave(ctx, p.RoomID, p.UserID, connID); err != nil {
			h.ackErr(connID, cmd.RequestID, err)
			return
		}
		h.hub.Ack(connID, gin.H{"requestId": cmd.RequestID, "ok": true})

	default:
		h.ackErr(connID, cmd.RequestID, errs.Validation("unknown action"))
	}
}

func (h *RoomWSHandler) ackErr(connID, requestID string, err error) {
	h.hub.Ack(connID, gin.H{
		"requestId": requestID,
		"ok":        false,
		"error": ackError{
			Kind:    errs.KindOf(err),
			Message: errs.MessageOf(err),
		},
	})
}
