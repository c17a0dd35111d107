package routes

import (
	"go-restaurant-pos/controllers"
	"go-restaurant-pos/helpers"
	"go-restaurant-pos/middleware"

	"github.com/gin-gonic/gin"
)

// IngredientRoutes are for the merchant only.
func IngredientRoutes(incomingRoutes gin.IRouter, ctl *controllers.Controller) {
	ingredients := incomingRoutes.Group("/ingredients", middleware.RequireRole(helpers.RoleMerchant))
	ingredients.GET("", ctl.GetIngredients())
	ingredients.POST("", ctl.CreateIngredient())
	ingredients.GET("/:ingredient_id", ctl.GetIngredient())
	ingredients.PUT("/:ingredient_id", ctl.UpdateIngredient())
	ingredients.DELETE("/:ingredient_id", ctl.DeleteIngredient())
	ingredients.GET("/:ingredient_id/reconcile", ctl.ReconcileIngredient())
}

func InventoryRoutes(incomingRoutes gin.IRouter, ctl *controllers.Controller) {
	incomingRoutes.POST("/inventory/in", ctl.RecordIn())
	incomingRoutes.POST("/inventory/out", ctl.RecordOut())
	incomingRoutes.GET("/inventory/history", ctl.GetHistory())
}
