package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"

	TakeawayTableNumber   = 0
	TakeawayTableLocation = "Takeaway Area"
)

type Table struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	TableNumber int                `bson:"table_number" json:"table_number" validate:"gte=0"`
	Seats       int                `bson:"seats" json:"seats" validate:"gte=0"`
	Status      string             `bson:"status" json:"status" validate:"oneof=available occupied"`
	Location    string             `bson:"location" json:"location"`
	IsTakeaway  bool               `bson:"is_takeaway" json:"is_takeaway"`
	Deleted     bool               `bson:"deleted" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewTable returns an available physical table.
func NewTable(number, seats int, location string) *Table {
	now := time.Now().UTC()
	return &Table{
		ID:          primitive.NewObjectID(),
		TableNumber: number,
		Seats:       seats,
		Status:      TableAvailable,
		Location:    location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTakeawayTable returns the virtual table that carries every takeaway order.
func NewTakeawayTable() *Table {
	t := NewTable(TakeawayTableNumber, 0, TakeawayTableLocation)
	t.IsTakeaway = true
	return t
}
