package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Ingredient struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Quantity  decimal.Decimal    `bson:"quantity" json:"quantity"`
	Unit      string             `bson:"unit" json:"unit"`
	UnitPrice decimal.Decimal    `bson:"unit_price" json:"unit_price"`
	TotalCost decimal.Decimal    `bson:"total_cost" json:"total_cost"`
	Deleted   bool               `bson:"deleted" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewIngredient returns an ingredient with nothing on hand. Stock arrives
// through inbound movements only.
func NewIngredient(name, unit string, unitPrice decimal.Decimal) *Ingredient {
	now := time.Now().UTC()
	return &Ingredient{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Unit:      unit,
		UnitPrice: unitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Open books quantity as the ingredient's first IN movement and returns it.
// The ingredient must not have been stored yet.
func (i *Ingredient) Open(quantity decimal.Decimal, description string) *InventoryMovement {
	movement := NewMovement(i.ID, MovementIn, quantity, description)
	movement.Date = i.CreatedAt
	movement.QuantityAfter = quantity
	i.Quantity = quantity
	i.TotalCost = quantity.Mul(i.UnitPrice)
	return movement
}

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// InventoryMovement is one append-only entry of the stock ledger.
type InventoryMovement struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	IngredientID   primitive.ObjectID `bson:"ingredient_id" json:"ingredient_id"`
	Type           MovementType       `bson:"type" json:"type"`
	Quantity       decimal.Decimal    `bson:"quantity" json:"quantity"`
	QuantityBefore decimal.Decimal    `bson:"quantity_before" json:"quantity_before"`
	QuantityAfter  decimal.Decimal    `bson:"quantity_after" json:"quantity_after"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Date           time.Time          `bson:"date" json:"date"`
}

func NewMovement(ingredientID primitive.ObjectID, typ MovementType, quantity decimal.Decimal, description string) *InventoryMovement {
	return &InventoryMovement{
		ID:           primitive.NewObjectID(),
		IngredientID: ingredientID,
		Type:         typ,
		Quantity:     quantity,
		Description:  description,
		Date:         time.Now().UTC(),
	}
}

// Delta is the signed change the movement applies to quantity on hand.
func (m InventoryMovement) Delta() decimal.Decimal {
	if m.Type == MovementOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// MovementFilter narrows a history query. Zero values mean "any".
type MovementFilter struct {
	IngredientID primitive.ObjectID
	Type         MovementType
	From         time.Time
	To           time.Time
}
