package controllers

import (
	"net/http"
	"strconv"

	"go-restaurant-pos/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createIngredientRequest struct {
	Name      string          `json:"name" validate:"required"`
	Unit      string          `json:"unit" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gte=0"`
}

type updateIngredientRequest struct {
	Name      *string          `json:"name" validate:"omitempty,min=1"`
	Unit      *string          `json:"unit" validate:"omitempty,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0"`
}

// GetIngredients pages through ingredients. Query: name, page, limit.
func (ctl *Controller) GetIngredients() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		limit, _ := strconv.Atoi(c.Query("limit"))
		ctx, cancel := ctl.context(c)
		defer cancel()

		items, total, err := ctl.stock.ListIngredients(ctx, c.Query("name"), page, limit)
		if err != nil {
			ctl.fail(c, "ingredient_list", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      http.StatusOK,
			"message":     "Ingredients fetched successfully",
			"data":        items,
			"total_count": total,
		})
	}
}

func (ctl *Controller) GetIngredient() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "ingredient_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		ingredient, err := ctl.stock.GetIngredient(ctx, id)
		if err != nil {
			ctl.fail(c, "ingredient_get", err)
			return
		}
		c.JSON(http.StatusOK, ingredient)
	}
}

func (ctl *Controller) CreateIngredient() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createIngredientRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		ingredient, err := ctl.stock.CreateIngredient(ctx, req.Name, req.Unit, req.UnitPrice, req.Quantity)
		if err != nil {
			ctl.fail(c, "ingredient_create", err)
			return
		}
		c.JSON(http.StatusCreated, ingredient)
	}
}

func (ctl *Controller) UpdateIngredient() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "ingredient_id")
		if !ok {
			return
		}
		var req updateIngredientRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		ingredient, err := ctl.stock.UpdateIngredient(ctx, id, services.IngredientPatch{
			Name:      req.Name,
			Unit:      req.Unit,
			UnitPrice: req.UnitPrice,
		})
		if err != nil {
			ctl.fail(c, "ingredient_update", err)
			return
		}
		c.JSON(http.StatusOK, ingredient)
	}
}

func (ctl *Controller) DeleteIngredient() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "ingredient_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		if err := ctl.stock.DeleteIngredient(ctx, id); err != nil {
			ctl.fail(c, "ingredient_delete", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ingredient deleted"})
	}
}

func (ctl *Controller) ReconcileIngredient() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "ingredient_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		rec, err := ctl.stock.Reconcile(ctx, id)
		if err != nil {
			ctl.fail(c, "inventory_reconcile", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ingredient_id": rec.IngredientID,
			"on_hand":       rec.OnHand,
			"total_in":      rec.TotalIn,
			"total_out":     rec.TotalOut,
			"balanced":      rec.Balanced(),
		})
	}
}
