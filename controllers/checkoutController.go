package controllers

import (
	"net/http"

	"go-restaurant-pos/models"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CASH CREDIT_CARD"`
	PaymentToken  string `json:"payment_token"`
}

// Checkout settles an order. A card payment needs the terminal approval code
// as payment_token.
func (ctl *Controller) Checkout() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := paramID(c, "order_id")
		if !ok {
			return
		}
		var req checkoutRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := ctl.context(c)
		defer cancel()

		order, err := ctl.orders.Checkout(ctx, orderID, models.PaymentMethod(req.PaymentMethod), req.PaymentToken)
		if err != nil {
			ctl.fail(c, "order_checkout", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
