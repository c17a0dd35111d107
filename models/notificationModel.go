package models

import "time"

// Live channel event names.
const (
	EventNewOrder        = "newOrder"
	EventOrderUpdated    = "orderUpdated"
	EventItemStatus      = "itemStatus"
	EventOrderCheckedOut = "orderCheckedOut"
)

// Notification is the advisory payload pushed to live listeners. Listeners
// re-fetch the order to get authoritative state.
type Notification struct {
	Event      string    `json:"event"`
	OrderID    string    `json:"order_id"`
	TableID    string    `json:"table_id"`
	IsTakeaway bool      `json:"is_takeaway"`
	At         time.Time `json:"at"`
}
