package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	TableCollection      = "tables"
	OrderCollection      = "orders"
	MenuCollection       = "menus"
	IngredientCollection = "ingredients"
	HistoryCollection    = "inventory_histories"
)

// DB owns the Mongo client for the lifetime of the process. It is opened in
// main and handed to each store.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func Connect(ctx context.Context, uri, name string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(Registry()))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &DB{Client: client, Database: client.Database(name)}, nil
}

func (d *DB) OpenCollection(name string) *mongo.Collection {
	return d.Database.Collection(name)
}

func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Ping reports whether the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, readpref.Primary())
}

// ErrNoTransactions is returned by RequireTransactions when the server is a
// standalone mongod.
var ErrNoTransactions = errors.New("mongodb must run as a replica set or sharded cluster")

// RequireTransactions fails unless the deployment supports multi-document
// transactions. Stock movements are written in a transaction.
func (d *DB) RequireTransactions(ctx context.Context) error {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := d.Client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	if !supportsTransactions(hello.SetName, hello.Msg) {
		return ErrNoTransactions
	}
	return nil
}

func supportsTransactions(setName, msg string) bool {
	return setName != "" || msg == "isdbgrid"
}

// EnsureIndexes creates the indexes the stores rely on for their atomicity
// guarantees. It is safe to call on every start.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		TableCollection: {
			{
				Keys: bson.D{{Key: "table_number", Value: 1}},
				Options: options.Index().
					SetName("uniq_physical_table_number").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"is_takeaway": false, "deleted": false}),
			},
			{
				Keys: bson.D{{Key: "is_takeaway", Value: 1}},
				Options: options.Index().
					SetName("uniq_takeaway_table").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"is_takeaway": true}),
			},
		},
		OrderCollection: {
			{
				// At most one open order per physical table.
				Keys: bson.D{{Key: "table_id", Value: 1}},
				Options: options.Index().
					SetName("uniq_open_order_per_table").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"is_checkout": false, "is_takeaway": false}),
			},
			{
				Keys: bson.D{{Key: "unique_id", Value: 1}},
				Options: options.Index().
					SetName("uniq_takeaway_token").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"unique_id": bson.M{"$exists": true}}),
			},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		IngredientCollection: {
			{
				Keys: bson.D{{Key: "name", Value: 1}},
				Options: options.Index().
					SetName("uniq_live_ingredient_name").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"deleted": false}),
			},
		},
		HistoryCollection: {
			{Keys: bson.D{{Key: "ingredient_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
	}
	for name, specs := range indexes {
		if _, err := d.OpenCollection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
