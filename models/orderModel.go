package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ItemStatus string

const (
	ItemNew        ItemStatus = "NEW"
	ItemInProgress ItemStatus = "INPROGRESS"
	ItemDone       ItemStatus = "DONE"
)

// Valid reports whether s is one of the three kitchen states.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemNew, ItemInProgress, ItemDone:
		return true
	}
	return false
}

// CanAdvanceTo reports whether next is the single forward step from s.
func (s ItemStatus) CanAdvanceTo(next ItemStatus) bool {
	switch s {
	case ItemNew:
		return next == ItemInProgress
	case ItemInProgress:
		return next == ItemDone
	}
	return false
}

type PaymentMethod string

const (
	PaymentNone       PaymentMethod = "NONE"
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentNone || m == PaymentCash || m == PaymentCreditCard
}

// OrderItem is one line of an order. MenuItemID is the line identity: an
// order holds at most one line per catalog item.
type OrderItem struct {
	MenuItemID primitive.ObjectID `bson:"menu_item_id" json:"menu_item_id"`
	Name       string             `bson:"name" json:"name"`
	Price      float64            `bson:"price" json:"price"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
	Status     ItemStatus         `bson:"status" json:"status"`
}

func (i OrderItem) Amount() float64 {
	return i.Price * float64(i.Quantity)
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	TableID       primitive.ObjectID `bson:"table_id" json:"table_id"`
	UniqueID      string             `bson:"unique_id,omitempty" json:"unique_id,omitempty"`
	Items         []OrderItem        `bson:"items" json:"items"`
	TotalAmount   float64            `bson:"total_amount" json:"total_amount"`
	IsTakeaway    bool               `bson:"is_takeaway" json:"is_takeaway"`
	IsCheckout    bool               `bson:"is_checkout" json:"is_checkout"`
	PaymentMethod PaymentMethod      `bson:"payment_method" json:"payment_method"`
	Version       int64              `bson:"version" json:"version"`
	CheckedOutAt  *time.Time         `bson:"checked_out_at,omitempty" json:"checked_out_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewOrder builds an open order for tableID. uniqueID is set only for
// takeaway orders.
func NewOrder(tableID primitive.ObjectID, items []OrderItem, isTakeaway bool, uniqueID string) *Order {
	now := time.Now().UTC()
	o := &Order{
		ID:            primitive.NewObjectID(),
		TableID:       tableID,
		UniqueID:      uniqueID,
		Items:         items,
		IsTakeaway:    isTakeaway,
		PaymentMethod: PaymentNone,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.TotalAmount = SumItems(o.Items)
	return o
}

// SumItems is the authoritative order total: price snapshot times quantity,
// summed over every line.
func SumItems(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Amount()
	}
	return total
}

// Item returns the index of the line for menuItemID, or -1.
func (o *Order) Item(menuItemID primitive.ObjectID) int {
	for i := range o.Items {
		if o.Items[i].MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

// CloneItems returns a copy of the item list safe to mutate before a write.
func (o *Order) CloneItems() []OrderItem {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	return items
}

// OrderFilter narrows an order listing. Zero values mean "any".
type OrderFilter struct {
	TableID  primitive.ObjectID
	UniqueID string
	OpenOnly bool
}
