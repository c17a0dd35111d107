// Package memdb keeps tables, orders, stock and the menu catalog in memory
// with the same contracts and atomicity guarantees as the Mongo stores.
package memdb

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"time"

	"go-restaurant-pos/database"
	"go-restaurant-pos/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DB struct {
	mu          sync.Mutex
	tables      map[primitive.ObjectID]models.Table
	orders      map[primitive.ObjectID]models.Order
	menu        map[primitive.ObjectID]models.MenuItem
	ingredients map[primitive.ObjectID]models.Ingredient
	history     []models.InventoryMovement
}

func New() *DB {
	return &DB{
		tables:      map[primitive.ObjectID]models.Table{},
		orders:      map[primitive.ObjectID]models.Order{},
		menu:        map[primitive.ObjectID]models.MenuItem{},
		ingredients: map[primitive.ObjectID]models.Ingredient{},
	}
}

// AddMenuItem seeds the catalog and returns the new item.
func (db *DB) AddMenuItem(name string, price float64) models.MenuItem {
	db.mu.Lock()
	defer db.mu.Unlock()
	item := models.MenuItem{ID: primitive.NewObjectID(), Name: name, Price: price, Available: true}
	db.menu[item.ID] = item
	return item
}

// SetMenuPrice changes a catalog price, as the catalog service would.
func (db *DB) SetMenuPrice(id primitive.ObjectID, price float64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	item := db.menu[id]
	item.Price = price
	db.menu[id] = item
}

func (db *DB) GetItem(_ context.Context, id primitive.ObjectID) (*models.MenuItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	item, ok := db.menu[id]
	if !ok || item.Deleted || !item.Available {
		return nil, fmt.Errorf("menu item %s: %w", id.Hex(), database.ErrNotFound)
	}
	return &item, nil
}

// tables

func (db *DB) InsertTable(_ context.Context, table *models.Table) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.tableNumberTaken(table.ID, table.TableNumber, table.IsTakeaway) {
		return fmt.Errorf("table number %d: %w", table.TableNumber, database.ErrDuplicate)
	}
	db.tables[table.ID] = *table
	return nil
}

func (db *DB) tableNumberTaken(self primitive.ObjectID, number int, takeaway bool) bool {
	for id, t := range db.tables {
		if id == self || t.Deleted {
			continue
		}
		if takeaway && t.IsTakeaway {
			return true
		}
		if !takeaway && !t.IsTakeaway && t.TableNumber == number {
			return true
		}
	}
	return false
}

func (db *DB) EnsureTakeawayTable(_ context.Context, table *models.Table) (*models.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, t := range db.tables {
		if t.IsTakeaway {
			return &t, nil
		}
	}
	db.tables[table.ID] = *table
	stored := *table
	return &stored, nil
}

func (db *DB) FindTable(_ context.Context, id primitive.ObjectID) (*models.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[id]
	if !ok || t.Deleted {
		return nil, fmt.Errorf("table %s: %w", id.Hex(), database.ErrNotFound)
	}
	return &t, nil
}

func (db *DB) ListTables(_ context.Context) ([]models.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	tables := []models.Table{}
	for _, t := range db.tables {
		if !t.Deleted {
			tables = append(tables, t)
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableNumber < tables[j].TableNumber })
	return tables, nil
}

func (db *DB) SaveTableDetails(_ context.Context, table *models.Table) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored, ok := db.tables[table.ID]
	if !ok || stored.Deleted {
		return fmt.Errorf("table %s: %w", table.ID.Hex(), database.ErrNotFound)
	}
	if db.tableNumberTaken(table.ID, table.TableNumber, stored.IsTakeaway) {
		return fmt.Errorf("table number %d: %w", table.TableNumber, database.ErrDuplicate)
	}
	stored.TableNumber = table.TableNumber
	stored.Seats = table.Seats
	stored.Location = table.Location
	stored.UpdatedAt = time.Now().UTC()
	db.tables[table.ID] = stored
	return nil
}

func (db *DB) SetTableStatus(_ context.Context, id primitive.ObjectID, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[id]
	if !ok || t.Deleted {
		return fmt.Errorf("table %s: %w", id.Hex(), database.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	db.tables[id] = t
	return nil
}

func (db *DB) DeleteTable(_ context.Context, id primitive.ObjectID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[id]
	if !ok || t.Deleted {
		return fmt.Errorf("table %s: %w", id.Hex(), database.ErrNotFound)
	}
	t.Deleted = true
	db.tables[id] = t
	return nil
}

// orders

func cloneOrder(o models.Order) *models.Order {
	o.Items = o.CloneItems()
	return &o
}

func (db *DB) InsertOrder(_ context.Context, order *models.Order) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.orders {
		if !order.IsTakeaway && !o.IsTakeaway && !o.IsCheckout && o.TableID == order.TableID {
			return fmt.Errorf("open order for table %s: %w", order.TableID.Hex(), database.ErrDuplicate)
		}
		if order.UniqueID != "" && o.UniqueID == order.UniqueID {
			return fmt.Errorf("takeaway token %s: %w", order.UniqueID, database.ErrDuplicate)
		}
	}
	db.orders[order.ID] = *cloneOrder(*order)
	return nil
}

func (db *DB) FindOrder(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	o, ok := db.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), database.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (db *DB) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	orders := []models.Order{}
	for _, o := range db.orders {
		if !f.TableID.IsZero() && o.TableID != f.TableID {
			continue
		}
		if f.UniqueID != "" && o.UniqueID != f.UniqueID {
			continue
		}
		if f.OpenOnly && o.IsCheckout {
			continue
		}
		orders = append(orders, *cloneOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (db *DB) HasOpenOrder(_ context.Context, tableID primitive.ObjectID) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.orders {
		if o.TableID == tableID && !o.IsCheckout {
			return true, nil
		}
	}
	return false, nil
}

func (db *DB) ReplaceItems(_ context.Context, id primitive.ObjectID, version int64, items []models.OrderItem, total float64) (*models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	o, ok := db.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), database.ErrNotFound)
	}
	if o.Version != version || o.IsCheckout {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), database.ErrStale)
	}
	o.Items = append([]models.OrderItem(nil), items...)
	o.TotalAmount = total
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	db.orders[id] = o
	return cloneOrder(o), nil
}

func (db *DB) CloseOrder(_ context.Context, id primitive.ObjectID, method models.PaymentMethod, at time.Time) (*models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	o, ok := db.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), database.ErrNotFound)
	}
	if o.IsCheckout {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), database.ErrStale)
	}
	o.IsCheckout = true
	o.PaymentMethod = method
	o.CheckedOutAt = &at
	o.UpdatedAt = at
	o.Version++
	db.orders[id] = o
	return cloneOrder(o), nil
}

// stock

func (db *DB) liveIngredientNamed(self primitive.ObjectID, name string) bool {
	for id, i := range db.ingredients {
		if id != self && !i.Deleted && i.Name == name {
			return true
		}
	}
	return false
}

func (db *DB) InsertIngredient(_ context.Context, ingredient *models.Ingredient, opening *models.InventoryMovement) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.liveIngredientNamed(ingredient.ID, ingredient.Name) {
		return fmt.Errorf("ingredient %q: %w", ingredient.Name, database.ErrDuplicate)
	}
	db.ingredients[ingredient.ID] = *ingredient
	if opening != nil {
		db.history = append(db.history, *opening)
	}
	return nil
}

func (db *DB) FindIngredient(_ context.Context, id primitive.ObjectID) (*models.Ingredient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	i, ok := db.ingredients[id]
	if !ok || i.Deleted {
		return nil, fmt.Errorf("ingredient %s: %w", id.Hex(), database.ErrNotFound)
	}
	return &i, nil
}

func (db *DB) ListIngredients(_ context.Context, name string, skip, limit int64) ([]models.Ingredient, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	matched := []models.Ingredient{}
	for _, i := range db.ingredients {
		if i.Deleted {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(i.Name), strings.ToLower(name)) {
			continue
		}
		matched = append(matched, i)
	}
	sort.Slice(matched, func(a, b int) bool { return matched[a].Name < matched[b].Name })
	total := int64(len(matched))
	if skip >= total {
		return []models.Ingredient{}, total, nil
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	return matched[skip:end], total, nil
}

func (db *DB) SaveIngredientDetails(_ context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored, ok := db.ingredients[ingredient.ID]
	if !ok || stored.Deleted {
		return nil, fmt.Errorf("ingredient %s: %w", ingredient.ID.Hex(), database.ErrNotFound)
	}
	if db.liveIngredientNamed(ingredient.ID, ingredient.Name) {
		return nil, fmt.Errorf("ingredient %q: %w", ingredient.Name, database.ErrDuplicate)
	}
	stored.Name = ingredient.Name
	stored.Unit = ingredient.Unit
	stored.UnitPrice = ingredient.UnitPrice
	stored.TotalCost = stored.Quantity.Mul(stored.UnitPrice)
	stored.UpdatedAt = time.Now().UTC()
	db.ingredients[stored.ID] = stored
	return &stored, nil
}

func (db *DB) DeleteIngredient(_ context.Context, id primitive.ObjectID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	i, ok := db.ingredients[id]
	if !ok || i.Deleted {
		return fmt.Errorf("ingredient %s: %w", id.Hex(), database.ErrNotFound)
	}
	i.Deleted = true
	db.ingredients[id] = i
	return nil
}

func (db *DB) ApplyMovement(_ context.Context, movement *models.InventoryMovement) (*models.Ingredient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	i, ok := db.ingredients[movement.IngredientID]
	if !ok || i.Deleted {
		return nil, fmt.Errorf("ingredient %s: %w", movement.IngredientID.Hex(), database.ErrNotFound)
	}
	if movement.Type == models.MovementOut && i.Quantity.LessThan(movement.Quantity) {
		return nil, fmt.Errorf("ingredient %s: %w", movement.IngredientID.Hex(), database.ErrInsufficient)
	}
	movement.QuantityBefore = i.Quantity
	i.Quantity = i.Quantity.Add(movement.Delta())
	i.TotalCost = i.Quantity.Mul(i.UnitPrice)
	i.UpdatedAt = movement.Date
	movement.QuantityAfter = i.Quantity
	db.ingredients[i.ID] = i
	db.history = append(db.history, *movement)
	return &i, nil
}

func (db *DB) Movements(_ context.Context, f models.MovementFilter) iter.Seq2[models.InventoryMovement, error] {
	return func(yield func(models.InventoryMovement, error) bool) {
		db.mu.Lock()
		matched := make([]models.InventoryMovement, 0, len(db.history))
		for i := len(db.history) - 1; i >= 0; i-- {
			m := db.history[i]
			if !f.IngredientID.IsZero() && m.IngredientID != f.IngredientID {
				continue
			}
			if f.Type != "" && m.Type != f.Type {
				continue
			}
			if !f.From.IsZero() && m.Date.Before(f.From) {
				continue
			}
			if !f.To.IsZero() && m.Date.After(f.To) {
				continue
			}
			matched = append(matched, m)
		}
		db.mu.Unlock()

		// Collected newest-appended first, so equal dates keep that order.
		sort.SliceStable(matched, func(a, b int) bool { return matched[a].Date.After(matched[b].Date) })
		for i := range matched {
			if !yield(matched[i], nil) {
				return
			}
		}
	}
}

func (db *DB) Ping(context.Context) error { return nil }
