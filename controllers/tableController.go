package controllers

import (
	"net/http"

	"go-restaurant-pos/services"

	"github.com/gin-gonic/gin"
)

type createTableRequest struct {
	TableNumber int    `json:"table_number" validate:"gt=0"`
	Seats       int    `json:"seats" validate:"gt=0"`
	Location    string `json:"location"`
}

type updateTableRequest struct {
	TableNumber *int    `json:"table_number" validate:"omitempty,gt=0"`
	Seats       *int    `json:"seats" validate:"omitempty,gt=0"`
	Location    *string `json:"location"`
}

func (ctl *Controller) GetTables() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := ctl.context(c)
		defer cancel()

		tables, err := ctl.tables.ListTables(ctx)
		if err != nil {
			ctl.fail(c, "table_list", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Tables fetched successfully",
			"data":    tables,
		})
	}
}

func (ctl *Controller) GetTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, ok := paramID(c, "table_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		table, err := ctl.tables.GetTable(ctx, tableID)
		if err != nil {
			ctl.fail(c, "table_get", err)
			return
		}
		c.JSON(http.StatusOK, table)
	}
}

func (ctl *Controller) CreateTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTableRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		table, err := ctl.tables.CreateTable(ctx, req.TableNumber, req.Seats, req.Location)
		if err != nil {
			ctl.fail(c, "table_create", err)
			return
		}
		c.JSON(http.StatusCreated, table)
	}
}

func (ctl *Controller) UpdateTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, ok := paramID(c, "table_id")
		if !ok {
			return
		}
		var req updateTableRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		table, err := ctl.tables.UpdateTable(ctx, tableID, services.TablePatch{
			TableNumber: req.TableNumber,
			Seats:       req.Seats,
			Location:    req.Location,
		})
		if err != nil {
			ctl.fail(c, "table_update", err)
			return
		}
		c.JSON(http.StatusOK, table)
	}
}

func (ctl *Controller) DeleteTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, ok := paramID(c, "table_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		if err := ctl.tables.DeleteTable(ctx, tableID); err != nil {
			ctl.fail(c, "table_delete", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "table deleted"})
	}
}
