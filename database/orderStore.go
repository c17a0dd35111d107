package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-restaurant-pos/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderStore struct {
	orderCollection *mongo.Collection
}

func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{orderCollection: db.OpenCollection(OrderCollection)}
}

// InsertOrder stores a new order. The partial unique index on open physical
// orders turns a second open order for the same table into ErrDuplicate.
func (s *OrderStore) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := s.orderCollection.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("open order for table %s: %w", order.TableID.Hex(), ErrDuplicate)
	}
	return err
}

func (s *OrderStore) FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.orderCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	filter := bson.M{}
	if !f.TableID.IsZero() {
		filter["table_id"] = f.TableID
	}
	if f.UniqueID != "" {
		filter["unique_id"] = f.UniqueID
	}
	if f.OpenOnly {
		filter["is_checkout"] = false
	}
	cursor, err := s.orderCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	allOrders := []models.Order{}
	if err := cursor.All(ctx, &allOrders); err != nil {
		return nil, err
	}
	return allOrders, nil
}

func (s *OrderStore) HasOpenOrder(ctx context.Context, tableID primitive.ObjectID) (bool, error) {
	n, err := s.orderCollection.CountDocuments(ctx,
		bson.M{"table_id": tableID, "is_checkout": false},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReplaceItems swaps the whole item list of an open order, provided nobody
// wrote the order since version was read.
func (s *OrderStore) ReplaceItems(ctx context.Context, id primitive.ObjectID, version int64, items []models.OrderItem, total float64) (*models.Order, error) {
	var updated models.Order
	err := s.orderCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "version": version, "is_checkout": false},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "items", Value: items},
				{Key: "total_amount", Value: total},
				{Key: "updated_at", Value: time.Now().UTC()},
			}},
			{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missOrStale(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CloseOrder flips an open order to checked out. Only one caller can win;
// the rest get ErrStale.
func (s *OrderStore) CloseOrder(ctx context.Context, id primitive.ObjectID, method models.PaymentMethod, at time.Time) (*models.Order, error) {
	var closed models.Order
	err := s.orderCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_checkout": false},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "is_checkout", Value: true},
				{Key: "payment_method", Value: method},
				{Key: "checked_out_at", Value: at},
				{Key: "updated_at", Value: at},
			}},
			{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&closed)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missOrStale(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &closed, nil
}

func (s *OrderStore) missOrStale(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.orderCollection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id.Hex(), ErrNotFound)
	}
	return fmt.Errorf("order %s: %w", id.Hex(), ErrStale)
}
