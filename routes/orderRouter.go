package routes

import (
	"go-restaurant-pos/controllers"

	"github.com/gin-gonic/gin"
)

func OrderRoutes(incomingRoutes gin.IRouter, ctl *controllers.Controller) {
	incomingRoutes.GET("/orders", ctl.GetOrders())
	incomingRoutes.GET("/orders/:order_id", ctl.GetOrder())
	incomingRoutes.POST("/orders", ctl.CreateOrder())
	incomingRoutes.GET("/orders/table/:table_id", ctl.GetTableOrders())
	incomingRoutes.GET("/orders/takeaway/:unique_id", ctl.GetTakeawayOrder())
	incomingRoutes.POST("/orders/:order_id/items", ctl.AppendItems())
	incomingRoutes.PUT("/orders/:order_id/items", ctl.UpdateItems())
	incomingRoutes.DELETE("/orders/:order_id/items/:menu_item_id", ctl.RemoveItem())
	incomingRoutes.PUT("/orders/:order_id/items/:menu_item_id/status", ctl.UpdateItemStatus())
	incomingRoutes.PUT("/orders/update-status/:order_id", ctl.UpdateItemStatuses())
}
