package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go-restaurant-pos/helpers"
	"go-restaurant-pos/logger"
	"go-restaurant-pos/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller holds the coordinator services behind the HTTP handlers. Every
// handler returns a gin.HandlerFunc.
type Controller struct {
	tables  *services.TableService
	orders  *services.OrderService
	stock   *services.StockService
	db      Pinger
	log     *logger.Logger
	timeout time.Duration
}

func New(tables *services.TableService, orders *services.OrderService, stock *services.StockService, db Pinger, log *logger.Logger, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{tables: tables, orders: orders, stock: stock, db: db, log: log, timeout: timeout}
}

func (ctl *Controller) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), ctl.timeout)
}

func (ctl *Controller) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctl.db != nil {
			ctx, cancel := ctl.context(c)
			defer cancel()
			if err := ctl.db.Ping(ctx); err != nil {
				ctl.log.Error("health", "database ping failed", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

var kindStatus = map[services.Kind]int{
	services.KindNotFound:          http.StatusNotFound,
	services.KindConflict:          http.StatusConflict,
	services.KindInvalidTransition: http.StatusUnprocessableEntity,
	services.KindInvalidRequest:    http.StatusBadRequest,
	services.KindInsufficientStock: http.StatusConflict,
	services.KindForbidden:         http.StatusForbidden,
	services.KindPaymentDeclined:   http.StatusPaymentRequired,
}

// fail writes err as a JSON error. Business errors carry their kind; anything
// else is logged and reported as a plain 500.
func (ctl *Controller) fail(c *gin.Context, action string, err error) {
	var e *services.Error
	if !errors.As(err, &e) {
		ctl.log.Error(action, "request failed", err, slog.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	status, ok := kindStatus[e.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	c.JSON(status, gin.H{"error": msg, "kind": e.Kind, "retryable": e.Retryable()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": services.KindInvalidRequest, "retryable": false})
}

// bind decodes the JSON body into req and runs its validate tags.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err.Error())
		return false
	}
	if err := helpers.Validate(req); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, name+" is not a valid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseID(c *gin.Context, field, hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		badRequest(c, field+" is not a valid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
