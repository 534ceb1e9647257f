package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prathamsaiya01/apna-adda-1/internal/errs"
	"github.com/prathamsaiya01/apna-adda-1/internal/model"
	"github.com/prathamsaiya01/apna-adda-1/internal/service"
)

// RoomHandler handles REST API for rooms.
type RoomHandler struct {
	svc *service.RoomService
}

// NewRoomHandler creates a room handler.
func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

// CreateRoom godoc
// POST /api/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req model.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	room, err := h.svc.CreateRoom(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoomByCode godoc
// GET /api/rooms/code/:code
func (h *RoomHandler) GetRoomByCode(c *gin.Context) {
	room, err := h.svc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ListRooms godoc
// GET /api/rooms?gameKey=...
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.svc.List(c.Request.Context(), c.Query("gameKey"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// DeleteRoom godoc
// DELETE /api/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FinishRoom godoc
// POST /api/rooms/:id/finish — called by the mini-game layer when a game
// concludes; the outcome body is forwarded to subscribers untouched.
func (h *RoomHandler) FinishRoom(c *gin.Context) {
	var req model.FinishRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := h.svc.Finish(c.Request.Context(), c.Param("id"), req.Outcome); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func writeError(c *gin.Context, err error) {
	c.JSON(errs.HTTPStatus(err), gin.H{
		"error":   string(errs.KindOf(err)),
		"message": errs.MessageOf(err),
	})
}
