package routes

import (
	"go-restaurant-pos/controllers"
	"go-restaurant-pos/helpers"
	"go-restaurant-pos/logger"
	"go-restaurant-pos/middleware"
	"go-restaurant-pos/realtime"

	"github.com/gin-gonic/gin"
)

// Register mounts every route. Health and the live channel are public; the
// rest needs a staff token.
func Register(router *gin.Engine, ctl *controllers.Controller, hub *realtime.Hub, tokens *helpers.TokenHelper, log *logger.Logger) {
	router.GET("/health", ctl.Health())
	RealtimeRoutes(router, hub)

	api := router.Group("/", middleware.Authentication(tokens, log))
	TableRoutes(api, ctl)
	OrderRoutes(api, ctl)
	CheckoutRoutes(api, ctl)
	IngredientRoutes(api, ctl)
	InventoryRoutes(api, ctl)
}
