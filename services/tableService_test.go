package services

import (
	"context"
	"testing"
	"time"

	"go-restaurant-pos/database/memdb"
	"go-restaurant-pos/logger"
	"go-restaurant-pos/models"
	"go-restaurant-pos/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTable(t *testing.T) {
	f := newFixture(t)

	table := f.table(t, 1)
	if table.Status != models.TableAvailable || table.IsTakeaway {
		t.Fatalf("new table = %+v", table)
	}

	_, err := f.tables.CreateTable(f.ctx, 1, 2, "Terrace")
	wantKind(t, err, KindConflict)

	_, err = f.tables.CreateTable(f.ctx, 0, 2, "")
	wantKind(t, err, KindInvalidRequest)

	_, err = f.tables.CreateTable(f.ctx, 2, 0, "")
	wantKind(t, err, KindInvalidRequest)
}

func TestEnsureTakeawayTableIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first := f.takeaway(t)
	second := f.takeaway(t)
	if first.ID != second.ID {
		t.Fatalf("second call created another takeaway table: %s vs %s", first.ID.Hex(), second.ID.Hex())
	}
	if !first.IsTakeaway || first.TableNumber != models.TakeawayTableNumber {
		t.Fatalf("takeaway table = %+v", first)
	}

	tables, err := f.tables.ListTables(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
}

func TestTakeawayTableIsImmutable(t *testing.T) {
	f := newFixture(t)
	takeaway := f.takeaway(t)
	seats := 10

	_, err := f.tables.UpdateTable(f.ctx, takeaway.ID, TablePatch{Seats: &seats})
	wantKind(t, err, KindForbidden)

	wantKind(t, f.tables.DeleteTable(f.ctx, takeaway.ID), KindForbidden)

	if err := f.tables.SetOccupied(f.ctx, takeaway.ID); err != nil {
		t.Fatalf("SetOccupied(takeaway) = %v, want no-op", err)
	}
	if got := f.tableStatus(t, takeaway.ID); got != models.TableAvailable {
		t.Fatalf("takeaway status = %s, want available", got)
	}
	if n := f.tracked.writes(takeaway.ID, models.TableOccupied); n != 0 {
		t.Fatalf("takeaway status written %d times", n)
	}
}

func TestOccupancy(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 5)

	if err := f.tables.SetOccupied(f.ctx, table.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.tableStatus(t, table.ID); got != models.TableOccupied {
		t.Fatalf("status = %s", got)
	}
	if err := f.tables.Release(f.ctx, table.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.tableStatus(t, table.ID); got != models.TableAvailable {
		t.Fatalf("status = %s", got)
	}

	wantKind(t, f.tables.SetOccupied(f.ctx, primitive.NewObjectID()), KindNotFound)
	wantKind(t, f.tables.Release(f.ctx, primitive.NewObjectID()), KindNotFound)
}

func TestUpdateTable(t *testing.T) {
	f := newFixture(t)
	one := f.table(t, 1)
	f.table(t, 2)

	taken := 2
	_, err := f.tables.UpdateTable(f.ctx, one.ID, TablePatch{TableNumber: &taken})
	wantKind(t, err, KindConflict)

	number, seats, location := 7, 6, "Garden"
	updated, err := f.tables.UpdateTable(f.ctx, one.ID, TablePatch{TableNumber: &number, Seats: &seats, Location: &location})
	if err != nil {
		t.Fatal(err)
	}
	if updated.TableNumber != 7 || updated.Seats != 6 || updated.Location != "Garden" {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestDeleteTable(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 3)
	order := f.openTwoLines(t, table)

	wantKind(t, f.tables.DeleteTable(f.ctx, table.ID), KindConflict)

	if _, err := f.orders.Checkout(f.ctx, order.ID, models.PaymentCash, ""); err != nil {
		t.Fatal(err)
	}
	if err := f.tables.DeleteTable(f.ctx, table.ID); err != nil {
		t.Fatal(err)
	}
	_, err := f.tables.GetTable(f.ctx, table.ID)
	wantKind(t, err, KindNotFound)
	wantKind(t, f.tables.DeleteTable(f.ctx, table.ID), KindNotFound)

	// The number is free again once the old table is gone.
	f.table(t, 3)
}

// racingOrders starts an order open on the table while DeleteTable is
// between its open-order check and the delete itself.
type racingOrders struct {
	*memdb.DB
	open func()
	done chan struct{}
}

func (r *racingOrders) HasOpenOrder(ctx context.Context, tableID primitive.ObjectID) (bool, error) {
	open, err := r.DB.HasOpenOrder(ctx, tableID)
	go func() {
		r.open()
		close(r.done)
	}()
	time.Sleep(20 * time.Millisecond)
	return open, err
}

func TestDeleteTableExcludesConcurrentOpen(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	log := logger.Discard()
	racing := &racingOrders{DB: db, done: make(chan struct{})}
	tables := NewTableService(db, racing, log)
	orders := NewOrderService(db, tables, db, &recordingPublisher{}, payment.NewRouter(payment.Terminal{MinCodeLength: 4}), log)
	pho := db.AddMenuItem("Pho bo", 50000)

	table, err := tables.CreateTable(ctx, 5, 4, "Hall")
	if err != nil {
		t.Fatal(err)
	}
	var openErr error
	racing.open = func() {
		_, openErr = orders.OpenOrder(ctx, table.ID, []ItemRequest{{MenuItemID: pho.ID, Quantity: 1}}, false)
	}

	if err := tables.DeleteTable(ctx, table.ID); err != nil {
		t.Fatal(err)
	}
	<-racing.done

	wantKind(t, openErr, KindNotFound)
	open, err := db.ListOrders(ctx, models.OrderFilter{TableID: table.ID, OpenOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Fatalf("open orders on deleted table = %d", len(open))
	}
}
