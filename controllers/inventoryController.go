package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-restaurant-pos/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type movementRequest struct {
	IngredientID string          `json:"ingredient_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity" validate:"gt=0"`
	Description  string          `json:"description"`
}

func (ctl *Controller) RecordIn() gin.HandlerFunc {
	return ctl.recordMovement(models.MovementIn)
}

func (ctl *Controller) RecordOut() gin.HandlerFunc {
	return ctl.recordMovement(models.MovementOut)
}

func (ctl *Controller) recordMovement(typ models.MovementType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req movementRequest
		if !bind(c, &req) {
			return
		}
		id, ok := parseID(c, "ingredient_id", req.IngredientID)
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		var (
			ingredient *models.Ingredient
			err        error
		)
		if typ == models.MovementIn {
			ingredient, err = ctl.stock.RecordIn(ctx, id, req.Quantity, req.Description)
		} else {
			ingredient, err = ctl.stock.RecordOut(ctx, id, req.Quantity, req.Description)
		}
		if err != nil {
			ctl.fail(c, "inventory_"+strings.ToLower(string(typ)), err)
			return
		}
		c.JSON(http.StatusOK, ingredient)
	}
}

// GetHistory lists stock movements newest first. Query: ingredient_id, type,
// from, to (RFC3339 or YYYY-MM-DD) and limit. ingredientId, startDate and
// endDate are accepted as aliases.
func (ctl *Controller) GetHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var f models.MovementFilter
		if hex := query(c, "ingredient_id", "ingredientId"); hex != "" {
			id, ok := parseID(c, "ingredient_id", hex)
			if !ok {
				return
			}
			f.IngredientID = id
		}
		f.Type = models.MovementType(strings.ToUpper(c.Query("type")))

		var err error
		if f.From, err = parseDate(query(c, "from", "startDate"), false); err != nil {
			badRequest(c, "from must be RFC3339 or YYYY-MM-DD")
			return
		}
		if f.To, err = parseDate(query(c, "to", "endDate"), true); err != nil {
			badRequest(c, "to must be RFC3339 or YYYY-MM-DD")
			return
		}

		limit := defaultHistoryLimit
		if v := c.Query("limit"); v != "" {
			if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
				badRequest(c, "limit must be a positive number")
				return
			}
		}
		limit = min(limit, maxHistoryLimit)

		ctx, cancel := ctl.context(c)
		defer cancel()

		seq, err := ctl.stock.History(ctx, f)
		if err != nil {
			ctl.fail(c, "inventory_history", err)
			return
		}
		movements := make([]models.InventoryMovement, 0, limit)
		for m, err := range seq {
			if err != nil {
				ctl.fail(c, "inventory_history", err)
				return
			}
			movements = append(movements, m)
			if len(movements) == limit {
				break
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Inventory history fetched successfully",
			"data":    movements,
		})
	}
}

// query returns the first non-empty query value among keys.
func query(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			return v
		}
	}
	return ""
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the whole
// day.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
