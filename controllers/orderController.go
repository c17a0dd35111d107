package controllers

import (
	"net/http"
	"strconv"

	"go-restaurant-pos/models"
	"go-restaurant-pos/services"

	"github.com/gin-gonic/gin"
)

type itemRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
	Note       string `json:"note"`
}

type openOrderRequest struct {
	TableID    string        `json:"table_id" validate:"required"`
	Items      []itemRequest `json:"items" validate:"required,min=1,dive"`
	IsTakeaway bool          `json:"is_takeaway"`
}

type itemsRequest struct {
	Items []itemRequest `json:"items" validate:"required,min=1,dive"`
}

type itemStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type statusUpdateRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Status     string `json:"status" validate:"required"`
}

type bulkStatusRequest struct {
	Items []statusUpdateRequest `json:"items" validate:"required,min=1,dive"`
}

func toItemRequests(c *gin.Context, items []itemRequest) ([]services.ItemRequest, bool) {
	out := make([]services.ItemRequest, 0, len(items))
	for _, it := range items {
		id, ok := parseID(c, "menu_item_id", it.MenuItemID)
		if !ok {
			return nil, false
		}
		out = append(out, services.ItemRequest{MenuItemID: id, Quantity: it.Quantity, Note: it.Note})
	}
	return out, true
}

func (ctl *Controller) CreateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req openOrderRequest
		if !bind(c, &req) {
			return
		}
		tableID, ok := parseID(c, "table_id", req.TableID)
		if !ok {
			return
		}
		items, ok := toItemRequests(c, req.Items)
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.OpenOrder(ctx, tableID, items, req.IsTakeaway)
		if err != nil {
			ctl.fail(c, "order_open", err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// GetOrders lists orders, newest first. ?open=true keeps only orders that
// are not checked out.
func (ctl *Controller) GetOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		openOnly, _ := strconv.ParseBool(c.Query("open"))
		ctx, cancel := ctl.context(c)
		defer cancel()

		orders, err := ctl.orders.ListOrders(ctx, openOnly)
		if err != nil {
			ctl.fail(c, "order_list", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Orders fetched successfully",
			"data":    orders,
		})
	}
}

func (ctl *Controller) GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := paramID(c, "order_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.GetOrder(ctx, orderID)
		if err != nil {
			ctl.fail(c, "order_get", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (ctl *Controller) GetTableOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, ok := paramID(c, "table_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		orders, err := ctl.orders.OpenOrdersForTable(ctx, tableID)
		if err != nil {
			ctl.fail(c, "order_list_table", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Table orders fetched successfully",
			"data":    orders,
		})
	}
}

func (ctl *Controller) GetTakeawayOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.TakeawayOrder(ctx, c.Param("unique_id"))
		if err != nil {
			ctl.fail(c, "order_get_takeaway", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (ctl *Controller) AppendItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := paramID(c, "order_id")
		if !ok {
			return
		}
		var req itemsRequest
		if !bind(c, &req) {
			return
		}
		items, ok := toItemRequests(c, req.Items)
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.AppendItems(ctx, orderID, items)
		if err != nil {
			ctl.fail(c, "order_append_items", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (ctl *Controller) UpdateItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := paramID(c, "order_id")
		if !ok {
			return
		}
		var req itemsRequest
		if !bind(c, &req) {
			return
		}
		items, ok := toItemRequests(c, req.Items)
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.UpdateItems(ctx, orderID, items)
		if err != nil {
			ctl.fail(c, "order_update_items", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (ctl *Controller) RemoveItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := paramID(c, "order_id")
		if !ok {
			return
		}
		menuItemID, ok := paramID(c, "menu_item_id")
		if !ok {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.RemoveItem(ctx, orderID, menuItemID)
		if err != nil {
			ctl.fail(c, "order_remove_item", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (ctl *Controller) UpdateItemStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := paramID(c, "order_id")
		if !ok {
			return
		}
		menuItemID, ok := paramID(c, "menu_item_id")
		if !ok {
			return
		}
		var req itemStatusRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.SetItemStatus(ctx, orderID, menuItemID, models.ItemStatus(req.Status))
		if err != nil {
			ctl.fail(c, "order_item_status", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (ctl *Controller) UpdateItemStatuses() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := paramID(c, "order_id")
		if !ok {
			return
		}
		var req bulkStatusRequest
		if !bind(c, &req) {
			return
		}
		updates := make([]services.StatusUpdate, 0, len(req.Items))
		for _, it := range req.Items {
			id, ok := parseID(c, "menu_item_id", it.MenuItemID)
			if !ok {
				return
			}
			updates = append(updates, services.StatusUpdate{MenuItemID: id, Status: models.ItemStatus(it.Status)})
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.SetItemStatuses(ctx, orderID, updates)
		if err != nil {
			ctl.fail(c, "order_item_status", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
