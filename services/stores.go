package services

import (
	"context"
	"iter"
	"time"

	"go-restaurant-pos/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TableStore persists tables. database.TableStore and memdb.DB implement it.
type TableStore interface {
	InsertTable(ctx context.Context, table *models.Table) error
	EnsureTakeawayTable(ctx context.Context, table *models.Table) (*models.Table, error)
	FindTable(ctx context.Context, id primitive.ObjectID) (*models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	SaveTableDetails(ctx context.Context, table *models.Table) error
	SetTableStatus(ctx context.Context, id primitive.ObjectID, status string) error
	DeleteTable(ctx context.Context, id primitive.ObjectID) error
}

// OrderStore persists orders with their embedded items.
type OrderStore interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	HasOpenOrder(ctx context.Context, tableID primitive.ObjectID) (bool, error)
	ReplaceItems(ctx context.Context, id primitive.ObjectID, version int64, items []models.OrderItem, total float64) (*models.Order, error)
	CloseOrder(ctx context.Context, id primitive.ObjectID, method models.PaymentMethod, at time.Time) (*models.Order, error)
}

// StockStore persists ingredients and the movement ledger.
type StockStore interface {
	// InsertIngredient stores a new ingredient and, when opening is not nil,
	// its first movement in the same write.
	InsertIngredient(ctx context.Context, ingredient *models.Ingredient, opening *models.InventoryMovement) error
	FindIngredient(ctx context.Context, id primitive.ObjectID) (*models.Ingredient, error)
	ListIngredients(ctx context.Context, name string, skip, limit int64) ([]models.Ingredient, int64, error)
	SaveIngredientDetails(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id primitive.ObjectID) error
	ApplyMovement(ctx context.Context, movement *models.InventoryMovement) (*models.Ingredient, error)
	Movements(ctx context.Context, f models.MovementFilter) iter.Seq2[models.InventoryMovement, error]
}

// Catalog prices menu items. It is read-only to the coordinator.
type Catalog interface {
	GetItem(ctx context.Context, id primitive.ObjectID) (*models.MenuItem, error)
}

// Publisher propagates committed order state to the mirror and live listeners.
type Publisher interface {
	Publish(ctx context.Context, event string, order *models.Order)
}

// PaymentAuthorizer settles an order's total with the chosen method.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, order *models.Order, method models.PaymentMethod, token string) error
}
