package routes

import (
	"go-restaurant-pos/realtime"

	"github.com/gin-gonic/gin"
)

func RealtimeRoutes(incomingRoutes gin.IRouter, hub *realtime.Hub) {
	incomingRoutes.GET("/ws", hub.HandleWebSocket())
}
