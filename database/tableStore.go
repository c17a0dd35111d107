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

type TableStore struct {
	tableCollection *mongo.Collection
}

func NewTableStore(db *DB) *TableStore {
	return &TableStore{tableCollection: db.OpenCollection(TableCollection)}
}

func (s *TableStore) InsertTable(ctx context.Context, table *models.Table) error {
	_, err := s.tableCollection.InsertOne(ctx, table)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("table number %d: %w", table.TableNumber, ErrDuplicate)
	}
	return err
}

// EnsureTakeawayTable inserts the takeaway table unless one exists and
// returns whichever is stored.
func (s *TableStore) EnsureTakeawayTable(ctx context.Context, table *models.Table) (*models.Table, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored models.Table
	err := s.tableCollection.FindOneAndUpdate(
		ctx,
		bson.M{"is_takeaway": true},
		bson.M{"$setOnInsert": bson.M{
			"_id":          table.ID,
			"table_number": table.TableNumber,
			"seats":        table.Seats,
			"status":       table.Status,
			"location":     table.Location,
			"deleted":      false,
			"created_at":   table.CreatedAt,
			"updated_at":   table.UpdatedAt,
		}},
		opts,
	).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an upsert race; the winner's document is the takeaway table.
		err = s.tableCollection.FindOne(ctx, bson.M{"is_takeaway": true}).Decode(&stored)
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *TableStore) FindTable(ctx context.Context, id primitive.ObjectID) (*models.Table, error) {
	var table models.Table
	err := s.tableCollection.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&table)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("table %s: %w", id.Hex(), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *TableStore) ListTables(ctx context.Context) ([]models.Table, error) {
	cursor, err := s.tableCollection.Find(ctx, bson.M{"deleted": false},
		options.Find().SetSort(bson.D{{Key: "table_number", Value: 1}}))
	if err != nil {
		return nil, err
	}
	allTables := []models.Table{}
	if err := cursor.All(ctx, &allTables); err != nil {
		return nil, err
	}
	return allTables, nil
}

// SaveTableDetails writes number, seats and location of a live table.
func (s *TableStore) SaveTableDetails(ctx context.Context, table *models.Table) error {
	var updateObj primitive.D
	updateObj = append(updateObj, bson.E{Key: "table_number", Value: table.TableNumber})
	updateObj = append(updateObj, bson.E{Key: "seats", Value: table.Seats})
	updateObj = append(updateObj, bson.E{Key: "location", Value: table.Location})
	updateObj = append(updateObj, bson.E{Key: "updated_at", Value: time.Now().UTC()})

	result, err := s.tableCollection.UpdateOne(ctx,
		bson.M{"_id": table.ID, "deleted": false},
		bson.D{{Key: "$set", Value: updateObj}},
	)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("table number %d: %w", table.TableNumber, ErrDuplicate)
	}
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("table %s: %w", table.ID.Hex(), ErrNotFound)
	}
	return nil
}

func (s *TableStore) SetTableStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	result, err := s.tableCollection.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: status},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("table %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}

// DeleteTable tombstones a table. Reads never return tombstoned tables.
func (s *TableStore) DeleteTable(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.tableCollection.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "deleted", Value: true},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("table %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}
