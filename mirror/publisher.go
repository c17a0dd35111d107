// Package mirror fans committed order state out to the realtime mirror store
// and to live listeners. It has no business rules of its own.
package mirror

import (
	"context"
	"log/slog"
	"time"

	"go-restaurant-pos/logger"
	"go-restaurant-pos/models"
)

// Store overwrites the snapshot at key. Last writer wins.
type Store interface {
	Set(ctx context.Context, key string, snapshot any) error
}

// Broadcaster pushes an event to every connected listener, best effort.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

type Publisher struct {
	store   Store
	live    Broadcaster
	timeout time.Duration
	log     *logger.Logger
}

func NewPublisher(store Store, live Broadcaster, timeout time.Duration, log *logger.Logger) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{store: store, live: live, timeout: timeout, log: log}
}

// Publish runs after the primary write has committed. A mirror failure is
// logged and left for the next mutation of the same order to overwrite; it
// never fails the caller.
func (p *Publisher) Publish(ctx context.Context, event string, order *models.Order) {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.store.Set(mctx, Key(order), NewSnapshot(order)); err != nil {
		p.log.Error("mirror_publish", "mirror write failed", err,
			slog.String("order_id", order.ID.Hex()), slog.String("event", event))
	}

	p.live.Broadcast(event, models.Notification{
		Event:      event,
		OrderID:    order.ID.Hex(),
		TableID:    order.TableID.Hex(),
		IsTakeaway: order.IsTakeaway,
		At:         time.Now().UTC(),
	})
}

// Discard is the mirror store used when no realtime database is configured.
type Discard struct{}

func (Discard) Set(context.Context, string, any) error { return nil }
