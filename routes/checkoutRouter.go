package routes

import (
	"go-restaurant-pos/controllers"

	"github.com/gin-gonic/gin"
)

func CheckoutRoutes(incomingRoutes gin.IRouter, ctl *controllers.Controller) {
	incomingRoutes.POST("/checkout/:order_id", ctl.Checkout())
}
