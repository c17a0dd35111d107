package services

import (
	"context"
	"log/slog"

	"go-restaurant-pos/logger"
	"go-restaurant-pos/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TableService is the table registry: occupancy of physical tables and the
// single takeaway table. Opening an order, checking one out and deleting a
// table are serialized per table through lock.
type TableService struct {
	store  TableStore
	orders OrderStore
	log    *logger.Logger
	locks  *keyedMutex
}

func NewTableService(store TableStore, orders OrderStore, log *logger.Logger) *TableService {
	return &TableService{store: store, orders: orders, log: log, locks: newKeyedMutex()}
}

// lock holds the table's lock until the returned func is called.
func (s *TableService) lock(id primitive.ObjectID) func() {
	return s.locks.Lock(id.Hex())
}

func (s *TableService) CreateTable(ctx context.Context, number, seats int, location string) (*models.Table, error) {
	if number <= 0 {
		return nil, newError(KindInvalidRequest, "table number must be positive, %d is reserved for takeaway", models.TakeawayTableNumber)
	}
	if seats <= 0 {
		return nil, newError(KindInvalidRequest, "seats must be positive")
	}
	table := models.NewTable(number, seats, location)
	if err := s.store.InsertTable(ctx, table); err != nil {
		return nil, storeError(err, "create table")
	}
	s.log.Info("table_create", "table created",
		slog.String("table_id", table.ID.Hex()), slog.Int("table_number", number))
	return table, nil
}

// EnsureTakeawayTable provisions the takeaway table if it is missing. It is
// idempotent and runs on every start.
func (s *TableService) EnsureTakeawayTable(ctx context.Context) (*models.Table, error) {
	table, err := s.store.EnsureTakeawayTable(ctx, models.NewTakeawayTable())
	if err != nil {
		return nil, storeError(err, "ensure takeaway table")
	}
	return table, nil
}

func (s *TableService) GetTable(ctx context.Context, id primitive.ObjectID) (*models.Table, error) {
	table, err := s.store.FindTable(ctx, id)
	if err != nil {
		return nil, storeError(err, "find table")
	}
	return table, nil
}

func (s *TableService) ListTables(ctx context.Context) ([]models.Table, error) {
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return nil, storeError(err, "list tables")
	}
	return tables, nil
}

// TablePatch carries the editable fields of a table. Nil means unchanged.
type TablePatch struct {
	TableNumber *int
	Seats       *int
	Location    *string
}

func (s *TableService) UpdateTable(ctx context.Context, id primitive.ObjectID, patch TablePatch) (*models.Table, error) {
	table, err := s.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}
	if table.IsTakeaway {
		return nil, newError(KindForbidden, "cannot edit the takeaway table")
	}
	if patch.TableNumber != nil {
		if *patch.TableNumber <= 0 {
			return nil, newError(KindInvalidRequest, "table number must be positive")
		}
		table.TableNumber = *patch.TableNumber
	}
	if patch.Seats != nil {
		if *patch.Seats <= 0 {
			return nil, newError(KindInvalidRequest, "seats must be positive")
		}
		table.Seats = *patch.Seats
	}
	if patch.Location != nil {
		table.Location = *patch.Location
	}
	if err := s.store.SaveTableDetails(ctx, table); err != nil {
		return nil, storeError(err, "update table")
	}
	return s.GetTable(ctx, id)
}

func (s *TableService) DeleteTable(ctx context.Context, id primitive.ObjectID) error {
	unlock := s.lock(id)
	defer unlock()

	table, err := s.GetTable(ctx, id)
	if err != nil {
		return err
	}
	if table.IsTakeaway {
		return newError(KindForbidden, "cannot delete the takeaway table")
	}
	open, err := s.orders.HasOpenOrder(ctx, id)
	if err != nil {
		return storeError(err, "check open orders")
	}
	if open {
		return newError(KindConflict, "table %d has an open order", table.TableNumber)
	}
	if err := s.store.DeleteTable(ctx, id); err != nil {
		return storeError(err, "delete table")
	}
	s.log.Info("table_delete", "table deleted", slog.String("table_id", id.Hex()))
	return nil
}

// SetOccupied marks a physical table occupied. The takeaway table is never
// occupied.
func (s *TableService) SetOccupied(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, models.TableOccupied)
}

// Release marks a physical table available again. No-op for takeaway.
func (s *TableService) Release(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, models.TableAvailable)
}

func (s *TableService) setStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	table, err := s.GetTable(ctx, id)
	if err != nil {
		return err
	}
	if table.IsTakeaway {
		return nil
	}
	if err := s.store.SetTableStatus(ctx, id, status); err != nil {
		return storeError(err, "set table status")
	}
	return nil
}
