package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prathamsaiya01/apna-adda-1/internal/handler"
	"github.com/prathamsaiya01/apna-adda-1/pkg/constants"
)

// New builds the HTTP router.
func New(
	roomHandler *handler.RoomHandler,
	roomWS *handler.RoomWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST rooms
	rooms := r.Group(constants.PathRooms)
	{
		rooms.POST("", roomHandler.CreateRoom)
		rooms.GET("", roomHandler.ListRooms)
		rooms.GET(constants.PathRoomByCode, roomHandler.GetRoomByCode)
		rooms.DELETE(constants.PathRoomByID, roomHandler.DeleteRoom)
		rooms.POST(constants.PathRoomFinish, roomHandler.FinishRoom)
	}

	// WebSocket: joinRoom / startRoom / leaveRoom commands
	r.GET(constants.PathWS, roomWS.ServeWS)

	return r
}
