// Package payment settles an order total before checkout. Card processing
// sits behind a CardGateway; the coordinator only needs success or failure.
package payment

import (
	"context"
	"errors"
	"fmt"

	"go-restaurant-pos/models"
)

// ErrDeclined marks a payment that did not go through. Callers may retry
// with a different method or token.
var ErrDeclined = errors.New("payment declined")

// CardGateway charges a card. amount is in the base currency unit.
type CardGateway interface {
	Charge(ctx context.Context, orderID string, amount float64, token string) error
}

// Router dispatches an authorization to the handler for the payment method.
type Router struct {
	cards CardGateway
}

func NewRouter(cards CardGateway) *Router {
	return &Router{cards: cards}
}

func (r *Router) Authorize(ctx context.Context, order *models.Order, method models.PaymentMethod, token string) error {
	switch method {
	case models.PaymentCash:
		// Cash is counted at the till.
		return nil
	case models.PaymentCreditCard:
		if token == "" {
			return fmt.Errorf("payment token is required for %s: %w", method, ErrDeclined)
		}
		if r.cards == nil {
			return fmt.Errorf("no card gateway configured: %w", ErrDeclined)
		}
		return r.cards.Charge(ctx, order.ID.Hex(), order.TotalAmount, token)
	}
	return fmt.Errorf("unsupported payment method %q: %w", method, ErrDeclined)
}

// Terminal is the card gateway for an in-store card terminal. The terminal
// charges the card itself and hands back an approval code, which is the
// payment token here.
type Terminal struct {
	// MinCodeLength rejects codes that are obviously not approval codes.
	MinCodeLength int
}

func (t Terminal) Charge(_ context.Context, orderID string, amount float64, token string) error {
	if amount < 0 {
		return fmt.Errorf("order %s has a negative total: %w", orderID, ErrDeclined)
	}
	if len(token) < t.MinCodeLength {
		return fmt.Errorf("approval code for order %s is too short: %w", orderID, ErrDeclined)
	}
	return nil
}
