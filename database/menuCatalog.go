package database

import (
	"context"
	"errors"
	"fmt"

	"go-restaurant-pos/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MenuCatalog is a read-only view over the menu collection, which is
// maintained by the catalog service.
type MenuCatalog struct {
	menuCollection *mongo.Collection
}

func NewMenuCatalog(db *DB) *MenuCatalog {
	return &MenuCatalog{menuCollection: db.OpenCollection(MenuCollection)}
}

// GetItem returns the current name and price of an orderable menu item.
// Deleted and unavailable items are reported as ErrNotFound.
func (c *MenuCatalog) GetItem(ctx context.Context, id primitive.ObjectID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := c.menuCollection.FindOne(ctx,
		bson.M{"_id": id, "deleted": bson.M{"$ne": true}, "available": bson.M{"$ne": false}},
		options.FindOne().SetProjection(bson.M{"name": 1, "price": 1, "available": 1}),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("menu item %s: %w", id.Hex(), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	item.Available = true
	return &item, nil
}
