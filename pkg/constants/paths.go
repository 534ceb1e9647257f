package constants

// HTTP route paths shared between router and docs.
const (
	PathHealth = "/health"
	PathReady  = "/ready"

	PathRooms      = "/api/rooms"
	PathRoomByCode = "/code/:code"
	PathRoomByID   = "/:id"
	PathRoomFinish = "/:id/finish"
	PathWS         = "/ws"
)
