package database

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"regexp"
	"time"

	"go-restaurant-pos/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StockStore struct {
	client               *mongo.Client
	ingredientCollection *mongo.Collection
	historyCollection    *mongo.Collection
}

func NewStockStore(db *DB) *StockStore {
	return &StockStore{
		client:               db.Client,
		ingredientCollection: db.OpenCollection(IngredientCollection),
		historyCollection:    db.OpenCollection(HistoryCollection),
	}
}

// InsertIngredient stores the ingredient and its opening movement, if any,
// in one transaction.
func (s *StockStore) InsertIngredient(ctx context.Context, ingredient *models.Ingredient, opening *models.InventoryMovement) error {
	_, err := s.transaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.ingredientCollection.InsertOne(sc, ingredient); err != nil {
			return nil, err
		}
		if opening == nil {
			return nil, nil
		}
		if _, err := s.historyCollection.InsertOne(sc, opening); err != nil {
			return nil, fmt.Errorf("append movement: %w", err)
		}
		return nil, nil
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("ingredient %q: %w", ingredient.Name, ErrDuplicate)
	}
	return err
}

func (s *StockStore) transaction(ctx context.Context, fn func(mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)
	return session.WithTransaction(ctx, fn)
}

func (s *StockStore) FindIngredient(ctx context.Context, id primitive.ObjectID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.ingredientCollection.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&ingredient)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("ingredient %s: %w", id.Hex(), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// ListIngredients pages through live ingredients sorted by name. name is a
// case-insensitive substring match.
func (s *StockStore) ListIngredients(ctx context.Context, name string, skip, limit int64) ([]models.Ingredient, int64, error) {
	filter := bson.M{"deleted": false}
	if name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"}
	}
	totalCount, err := s.ingredientCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cursor, err := s.ingredientCollection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	ingredients := []models.Ingredient{}
	if err := cursor.All(ctx, &ingredients); err != nil {
		return nil, 0, err
	}
	return ingredients, totalCount, nil
}

// SaveIngredientDetails writes name, unit and unit price. Quantity is owned
// by ApplyMovement and is never written here.
func (s *StockStore) SaveIngredientDetails(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "name", Value: ingredient.Name},
			{Key: "unit", Value: ingredient.Unit},
			{Key: "unit_price", Value: ingredient.UnitPrice},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "total_cost", Value: bson.D{{Key: "$multiply", Value: bson.A{"$quantity", "$unit_price"}}}},
		}}},
	}
	var saved models.Ingredient
	err := s.ingredientCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": ingredient.ID, "deleted": false},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&saved)
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("ingredient %q: %w", ingredient.Name, ErrDuplicate)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("ingredient %s: %w", ingredient.ID.Hex(), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *StockStore) DeleteIngredient(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.ingredientCollection.UpdateOne(ctx,
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
		return fmt.Errorf("ingredient %s: %w", id.Hex(), ErrNotFound)
	}
	return nil
}

// ApplyMovement changes quantity on hand and appends the movement in one
// transaction. An OUT movement only matches when enough stock is on hand, so
// the check and the decrement are a single conditional update. Quantities are
// Decimal128 and $add on them is exact. The movement's before/after snapshots
// are filled in.
func (s *StockStore) ApplyMovement(ctx context.Context, movement *models.InventoryMovement) (*models.Ingredient, error) {
	result, err := s.transaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"_id": movement.IngredientID, "deleted": false}
		if movement.Type == models.MovementOut {
			filter["quantity"] = bson.M{"$gte": movement.Quantity}
		}
		update := mongo.Pipeline{
			{{Key: "$set", Value: bson.D{
				{Key: "quantity", Value: bson.D{{Key: "$add", Value: bson.A{"$quantity", movement.Delta()}}}},
				{Key: "updated_at", Value: movement.Date},
			}}},
			{{Key: "$set", Value: bson.D{
				{Key: "total_cost", Value: bson.D{{Key: "$multiply", Value: bson.A{"$quantity", "$unit_price"}}}},
			}}},
		}
		var after models.Ingredient
		err := s.ingredientCollection.FindOneAndUpdate(sc, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&after)
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := s.FindIngredient(sc, movement.IngredientID); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("ingredient %s: %w", movement.IngredientID.Hex(), ErrInsufficient)
		}
		if err != nil {
			return nil, err
		}

		movement.QuantityAfter = after.Quantity
		movement.QuantityBefore = after.Quantity.Sub(movement.Delta())
		if _, err := s.historyCollection.InsertOne(sc, movement); err != nil {
			return nil, fmt.Errorf("append movement: %w", err)
		}
		return &after, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Ingredient), nil
}

// Movements streams matching history entries newest first. Each range over
// the returned sequence runs a fresh query.
func (s *StockStore) Movements(ctx context.Context, f models.MovementFilter) iter.Seq2[models.InventoryMovement, error] {
	return func(yield func(models.InventoryMovement, error) bool) {
		cursor, err := s.historyCollection.Find(ctx, movementQuery(f), options.Find().
			SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}))
		if err != nil {
			yield(models.InventoryMovement{}, err)
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var movement models.InventoryMovement
			if err := cursor.Decode(&movement); err != nil {
				yield(models.InventoryMovement{}, err)
				return
			}
			if !yield(movement, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(models.InventoryMovement{}, err)
		}
	}
}

func movementQuery(f models.MovementFilter) bson.M {
	filter := bson.M{}
	if !f.IngredientID.IsZero() {
		filter["ingredient_id"] = f.IngredientID
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		date := bson.M{}
		if !f.From.IsZero() {
			date["$gte"] = f.From
		}
		if !f.To.IsZero() {
			date["$lte"] = f.To
		}
		filter["date"] = date
	}
	return filter
}
