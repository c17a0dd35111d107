package services

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"

	"go-restaurant-pos/database"
	"go-restaurant-pos/logger"
	"go-restaurant-pos/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const initialStockDescription = "initial stock"

// StockService is the stock ledger. Quantity on hand only changes through
// movements, so for every ingredient quantity == sum(IN) - sum(OUT).
type StockService struct {
	store StockStore
	log   *logger.Logger
}

func NewStockService(store StockStore, log *logger.Logger) *StockService {
	return &StockService{store: store, log: log}
}

// CreateIngredient registers an ingredient. A positive initialQuantity is
// booked as an IN movement stored together with the ingredient.
func (s *StockService) CreateIngredient(ctx context.Context, name, unit string, unitPrice, initialQuantity decimal.Decimal) (*models.Ingredient, error) {
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return nil, newError(KindInvalidRequest, "name and unit are required")
	}
	if unitPrice.IsNegative() || initialQuantity.IsNegative() {
		return nil, newError(KindInvalidRequest, "unit price and quantity cannot be negative")
	}

	ingredient := models.NewIngredient(name, unit, unitPrice)
	var opening *models.InventoryMovement
	if initialQuantity.IsPositive() {
		opening = ingredient.Open(initialQuantity, initialStockDescription)
	}
	if err := s.store.InsertIngredient(ctx, ingredient, opening); err != nil {
		return nil, storeError(err, "create ingredient")
	}
	s.log.Info("ingredient_create", "ingredient created",
		slog.String("ingredient_id", ingredient.ID.Hex()),
		slog.String("name", name),
		slog.String("on_hand", ingredient.Quantity.String()))
	return ingredient, nil
}

func (s *StockService) GetIngredient(ctx context.Context, id primitive.ObjectID) (*models.Ingredient, error) {
	ingredient, err := s.store.FindIngredient(ctx, id)
	if err != nil {
		return nil, storeError(err, "find ingredient")
	}
	return ingredient, nil
}

// ListIngredients returns one page of ingredients and the total match count.
func (s *StockService) ListIngredients(ctx context.Context, name string, page, limit int) ([]models.Ingredient, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	items, total, err := s.store.ListIngredients(ctx, strings.TrimSpace(name), int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, 0, storeError(err, "list ingredients")
	}
	return items, total, nil
}

type IngredientPatch struct {
	Name      *string
	Unit      *string
	UnitPrice *decimal.Decimal
}

// UpdateIngredient edits descriptive fields. Quantity is not editable here.
func (s *StockService) UpdateIngredient(ctx context.Context, id primitive.ObjectID, patch IngredientPatch) (*models.Ingredient, error) {
	ingredient, err := s.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, newError(KindInvalidRequest, "name cannot be empty")
		}
		ingredient.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Unit != nil {
		if strings.TrimSpace(*patch.Unit) == "" {
			return nil, newError(KindInvalidRequest, "unit cannot be empty")
		}
		ingredient.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.UnitPrice != nil {
		if patch.UnitPrice.IsNegative() {
			return nil, newError(KindInvalidRequest, "unit price cannot be negative")
		}
		ingredient.UnitPrice = *patch.UnitPrice
	}
	saved, err := s.store.SaveIngredientDetails(ctx, ingredient)
	if err != nil {
		return nil, storeError(err, "update ingredient")
	}
	return saved, nil
}

// DeleteIngredient tombstones the ingredient. Its history is kept.
func (s *StockService) DeleteIngredient(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteIngredient(ctx, id); err != nil {
		return storeError(err, "delete ingredient")
	}
	s.log.Info("ingredient_delete", "ingredient deleted", slog.String("ingredient_id", id.Hex()))
	return nil
}

// RecordIn adds stock and appends an IN movement atomically.
func (s *StockService) RecordIn(ctx context.Context, ingredientID primitive.ObjectID, quantity decimal.Decimal, description string) (*models.Ingredient, error) {
	return s.record(ctx, ingredientID, models.MovementIn, quantity, description)
}

// RecordOut removes stock and appends an OUT movement atomically. It fails
// with InsufficientStock rather than drive quantity below zero.
func (s *StockService) RecordOut(ctx context.Context, ingredientID primitive.ObjectID, quantity decimal.Decimal, description string) (*models.Ingredient, error) {
	return s.record(ctx, ingredientID, models.MovementOut, quantity, description)
}

func (s *StockService) record(ctx context.Context, ingredientID primitive.ObjectID, typ models.MovementType, quantity decimal.Decimal, description string) (*models.Ingredient, error) {
	if ingredientID.IsZero() {
		return nil, newError(KindInvalidRequest, "ingredient id is required")
	}
	if !quantity.IsPositive() {
		return nil, newError(KindInvalidRequest, "quantity must be greater than 0")
	}

	movement := models.NewMovement(ingredientID, typ, quantity, strings.TrimSpace(description))
	ingredient, err := s.store.ApplyMovement(ctx, movement)
	if err != nil {
		if errors.Is(err, database.ErrInsufficient) {
			return nil, &Error{Kind: KindInsufficientStock, Msg: "not enough stock available", Err: err}
		}
		return nil, storeError(err, "record movement")
	}
	s.log.Info("inventory_"+strings.ToLower(string(typ)), "stock movement recorded",
		slog.String("ingredient_id", ingredientID.Hex()),
		slog.String("quantity", quantity.String()),
		slog.String("on_hand", ingredient.Quantity.String()))
	return ingredient, nil
}

// History streams movements matching f, newest first. The sequence is lazy,
// finite and can be ranged over again to re-run the query.
func (s *StockService) History(ctx context.Context, f models.MovementFilter) (iter.Seq2[models.InventoryMovement, error], error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, newError(KindInvalidRequest, "type must be IN or OUT")
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, newError(KindInvalidRequest, "end date is before start date")
	}
	return s.store.Movements(ctx, f), nil
}

// Reconciliation compares quantity on hand with the movement ledger.
type Reconciliation struct {
	IngredientID primitive.ObjectID `json:"ingredient_id"`
	OnHand       decimal.Decimal    `json:"on_hand"`
	TotalIn      decimal.Decimal    `json:"total_in"`
	TotalOut     decimal.Decimal    `json:"total_out"`
}

func (r Reconciliation) Ledger() decimal.Decimal { return r.TotalIn.Sub(r.TotalOut) }

func (r Reconciliation) Balanced() bool { return r.OnHand.Equal(r.Ledger()) }

func (s *StockService) Reconcile(ctx context.Context, id primitive.ObjectID) (*Reconciliation, error) {
	ingredient, err := s.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := &Reconciliation{IngredientID: id, OnHand: ingredient.Quantity}
	for m, err := range s.store.Movements(ctx, models.MovementFilter{IngredientID: id}) {
		if err != nil {
			return nil, storeError(err, "read movements")
		}
		if m.Type == models.MovementIn {
			rec.TotalIn = rec.TotalIn.Add(m.Quantity)
		} else {
			rec.TotalOut = rec.TotalOut.Add(m.Quantity)
		}
	}
	if !rec.Balanced() {
		s.log.Warn("inventory_reconcile", "stock ledger drift",
			slog.String("ingredient_id", id.Hex()),
			slog.String("on_hand", rec.OnHand.String()),
			slog.String("ledger", rec.Ledger().String()))
	}
	return rec, nil
}
