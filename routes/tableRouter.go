package routes

import (
	"go-restaurant-pos/controllers"
	"go-restaurant-pos/helpers"
	"go-restaurant-pos/middleware"

	"github.com/gin-gonic/gin"
)

func TableRoutes(incomingRoutes gin.IRouter, ctl *controllers.Controller) {
	merchant := middleware.RequireRole(helpers.RoleMerchant)

	incomingRoutes.GET("/tables", ctl.GetTables())
	incomingRoutes.GET("/tables/:table_id", ctl.GetTable())
	incomingRoutes.POST("/tables", merchant, ctl.CreateTable())
	incomingRoutes.PUT("/tables/:table_id", merchant, ctl.UpdateTable())
	incomingRoutes.DELETE("/tables/:table_id", merchant, ctl.DeleteTable())
}
