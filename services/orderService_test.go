package services

import (
	"sync"
	"testing"

	"go-restaurant-pos/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOpenOrderOccupiesTable(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)

	order := f.openTwoLines(t, table)

	if order.TotalAmount != 120000 {
		t.Fatalf("total = %v, want 120000", order.TotalAmount)
	}
	if order.IsCheckout || order.IsTakeaway || order.UniqueID != "" {
		t.Fatalf("order flags = %+v", order)
	}
	for _, line := range order.Items {
		if line.Status != models.ItemNew {
			t.Fatalf("line %s status = %s, want NEW", line.Name, line.Status)
		}
	}
	if got := f.tableStatus(t, table.ID); got != models.TableOccupied {
		t.Fatalf("table status = %s, want occupied", got)
	}
	if n := f.pub.count(models.EventNewOrder); n != 1 {
		t.Fatalf("newOrder published %d times", n)
	}
}

func TestOpenOrderRejectsBusyTable(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)
	f.openTwoLines(t, table)

	_, err := f.orders.OpenOrder(f.ctx, table.ID, []ItemRequest{{MenuItemID: f.tra.ID, Quantity: 1}}, false)
	wantKind(t, err, KindConflict)
}

func TestConcurrentOpenOrdersOnOneTable(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 9)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.OpenOrder(f.ctx, table.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}}, false)
			if err != nil {
				if KindOf(err) != KindConflict {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("%d orders opened, want exactly 1", succeeded)
	}
	open, err := f.orders.OpenOrdersForTable(f.ctx, table.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Fatalf("open orders = %d, want 1", len(open))
	}
}

func TestOpenOrderValidation(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)
	takeaway := f.takeaway(t)

	tests := []struct {
		name     string
		tableID  primitive.ObjectID
		items    []ItemRequest
		takeaway bool
		kind     Kind
	}{
		{"no items", table.ID, nil, false, KindInvalidRequest},
		{"zero quantity", table.ID, []ItemRequest{{MenuItemID: f.pho.ID}}, false, KindInvalidRequest},
		{"negative quantity", table.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: -1}}, false, KindInvalidRequest},
		{"missing menu id", table.ID, []ItemRequest{{Quantity: 1}}, false, KindInvalidRequest},
		{"unknown table", primitive.NewObjectID(), []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}}, false, KindNotFound},
		{"takeaway flag on physical table", table.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}}, true, KindInvalidRequest},
		{"dine-in on takeaway table", takeaway.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}}, false, KindInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.OpenOrder(f.ctx, tt.tableID, tt.items, tt.takeaway)
			wantKind(t, err, tt.kind)
		})
	}

	if got := f.tableStatus(t, table.ID); got != models.TableAvailable {
		t.Fatalf("table status = %s after rejected opens", got)
	}
}

func TestOpenOrderUnknownMenuItemWritesNothing(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)

	_, err := f.orders.OpenOrder(f.ctx, table.ID, []ItemRequest{
		{MenuItemID: f.pho.ID, Quantity: 1},
		{MenuItemID: primitive.NewObjectID(), Quantity: 1},
	}, false)
	wantKind(t, err, KindNotFound)

	orders, err := f.orders.ListOrders(f.ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("orders = %d, want none", len(orders))
	}
	if got := f.tableStatus(t, table.ID); got != models.TableAvailable {
		t.Fatalf("table status = %s", got)
	}
	if n := f.pub.count(models.EventNewOrder); n != 0 {
		t.Fatalf("newOrder published %d times", n)
	}
}

func TestOpenOrderMergesRepeatedItems(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)

	order, err := f.orders.OpenOrder(f.ctx, table.ID, []ItemRequest{
		{MenuItemID: f.pho.ID, Quantity: 1},
		{MenuItemID: f.tra.ID, Quantity: 1},
		{MenuItemID: f.pho.ID, Quantity: 2, Note: "no onion"},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("lines = %d, want 2", len(order.Items))
	}
	pho := order.Items[order.Item(f.pho.ID)]
	if pho.Quantity != 3 || pho.Note != "no onion" {
		t.Fatalf("pho line = %+v", pho)
	}
	if order.TotalAmount != 170000 {
		t.Fatalf("total = %v, want 170000", order.TotalAmount)
	}
}

func TestTakeawayOrders(t *testing.T) {
	f := newFixture(t)
	takeaway := f.takeaway(t)

	first, err := f.orders.OpenOrder(f.ctx, takeaway.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}}, true)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.orders.OpenOrder(f.ctx, takeaway.ID, []ItemRequest{{MenuItemID: f.tra.ID, Quantity: 2}}, true)
	if err != nil {
		t.Fatal(err)
	}

	if first.UniqueID == "" || first.UniqueID == second.UniqueID {
		t.Fatalf("takeaway tokens = %q, %q", first.UniqueID, second.UniqueID)
	}
	if !first.IsTakeaway {
		t.Fatal("order not flagged as takeaway")
	}
	if got := f.tableStatus(t, takeaway.ID); got != models.TableAvailable {
		t.Fatalf("takeaway table status = %s, want available", got)
	}

	found, err := f.orders.TakeawayOrder(f.ctx, second.UniqueID)
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != second.ID {
		t.Fatalf("lookup returned %s, want %s", found.ID.Hex(), second.ID.Hex())
	}
	_, err = f.orders.TakeawayOrder(f.ctx, "nope")
	wantKind(t, err, KindNotFound)

	closed, err := f.orders.Checkout(f.ctx, first.ID, models.PaymentCash, "")
	if err != nil {
		t.Fatal(err)
	}
	if !closed.IsCheckout {
		t.Fatal("takeaway order still open after checkout")
	}
	if n := f.tracked.writes(takeaway.ID, models.TableAvailable); n != 0 {
		t.Fatalf("takeaway table released %d times", n)
	}
}

func TestAppendItems(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)
	order := f.openTwoLines(t, table)
	com := f.db.AddMenuItem("Com tam", 45000)

	// A later price change must not reprice the existing line.
	f.db.SetMenuPrice(f.pho.ID, 99000)

	updated, err := f.orders.AppendItems(f.ctx, order.ID, []ItemRequest{
		{MenuItemID: f.pho.ID, Quantity: 1},
		{MenuItemID: com.ID, Quantity: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Items) != 3 {
		t.Fatalf("lines = %d, want 3", len(updated.Items))
	}
	pho := updated.Items[updated.Item(f.pho.ID)]
	if pho.Quantity != 3 || pho.Price != 50000 {
		t.Fatalf("pho line = %+v", pho)
	}
	if want := 3*50000.0 + 20000 + 2*45000; updated.TotalAmount != want {
		t.Fatalf("total = %v, want %v", updated.TotalAmount, want)
	}
	assertTotal(t, updated)
	if updated.Version <= order.Version {
		t.Fatalf("version %d did not advance from %d", updated.Version, order.Version)
	}
	if n := f.pub.count(models.EventOrderUpdated); n != 1 {
		t.Fatalf("orderUpdated published %d times", n)
	}
}

func TestAppendItemsToStartedLine(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))

	if _, err := f.orders.SetItemStatus(f.ctx, order.ID, f.pho.ID, models.ItemInProgress); err != nil {
		t.Fatal(err)
	}
	_, err := f.orders.AppendItems(f.ctx, order.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}})
	wantKind(t, err, KindInvalidTransition)

	got, err := f.orders.GetOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Items[got.Item(f.pho.ID)].Quantity != 2 {
		t.Fatal("rejected append changed the line")
	}
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orders.AppendItems(f.ctx, order.ID, []ItemRequest{{MenuItemID: f.tra.ID, Quantity: 1}}); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.orders.GetOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q := got.Items[got.Item(f.tra.ID)].Quantity; q != 1+workers {
		t.Fatalf("tra quantity = %d, want %d", q, 1+workers)
	}
	assertTotal(t, got)
}

func TestUpdateItems(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))

	updated, err := f.orders.UpdateItems(f.ctx, order.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 4}})
	if err != nil {
		t.Fatal(err)
	}
	if updated.TotalAmount != 220000 {
		t.Fatalf("total = %v, want 220000", updated.TotalAmount)
	}
	assertTotal(t, updated)

	tests := []struct {
		name  string
		items []ItemRequest
		kind  Kind
	}{
		{"empty", nil, KindInvalidRequest},
		{"zero quantity", []ItemRequest{{MenuItemID: f.pho.ID}}, KindInvalidRequest},
		{"listed twice", []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}, {MenuItemID: f.pho.ID, Quantity: 2}}, KindInvalidRequest},
		{"not on order", []ItemRequest{{MenuItemID: primitive.NewObjectID(), Quantity: 1}}, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.UpdateItems(f.ctx, order.ID, tt.items)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestUpdateItemsAfterKitchenFinished(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))

	for _, status := range []models.ItemStatus{models.ItemInProgress, models.ItemDone} {
		if _, err := f.orders.SetItemStatus(f.ctx, order.ID, f.tra.ID, status); err != nil {
			t.Fatalf("advance to %s: %v", status, err)
		}
	}

	_, err := f.orders.UpdateItems(f.ctx, order.ID, []ItemRequest{{MenuItemID: f.tra.ID, Quantity: 3}})
	wantKind(t, err, KindInvalidTransition)

	_, err = f.orders.SetItemStatus(f.ctx, order.ID, f.tra.ID, models.ItemNew)
	wantKind(t, err, KindInvalidTransition)

	got, err := f.orders.GetOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalAmount != 120000 {
		t.Fatalf("total = %v, want 120000", got.TotalAmount)
	}
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))

	updated, err := f.orders.RemoveItem(f.ctx, order.ID, f.tra.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Items) != 1 || updated.TotalAmount != 100000 {
		t.Fatalf("after remove = %+v", updated)
	}

	_, err = f.orders.RemoveItem(f.ctx, order.ID, f.tra.ID)
	wantKind(t, err, KindNotFound)

	_, err = f.orders.RemoveItem(f.ctx, order.ID, f.pho.ID)
	wantKind(t, err, KindInvalidRequest)
}

func TestRemoveStartedItem(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))
	if _, err := f.orders.SetItemStatus(f.ctx, order.ID, f.tra.ID, models.ItemInProgress); err != nil {
		t.Fatal(err)
	}
	_, err := f.orders.RemoveItem(f.ctx, order.ID, f.tra.ID)
	wantKind(t, err, KindInvalidTransition)
}

func TestItemStatusTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps []models.ItemStatus
		kind  Kind
	}{
		{"forward one step at a time", []models.ItemStatus{models.ItemInProgress, models.ItemDone}, ""},
		{"skip in progress", []models.ItemStatus{models.ItemDone}, KindInvalidTransition},
		{"same status", []models.ItemStatus{models.ItemNew}, KindInvalidTransition},
		{"backwards", []models.ItemStatus{models.ItemInProgress, models.ItemNew}, KindInvalidTransition},
		{"past done", []models.ItemStatus{models.ItemInProgress, models.ItemDone, models.ItemDone}, KindInvalidTransition},
		{"unknown status", []models.ItemStatus{"COLD"}, KindInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			order := f.openTwoLines(t, f.table(t, 1))

			var err error
			for _, status := range tt.steps {
				if _, err = f.orders.SetItemStatus(f.ctx, order.ID, f.pho.ID, status); err != nil {
					break
				}
			}
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			wantKind(t, err, tt.kind)
		})
	}
}

func TestSetItemStatusesAllOrNothing(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))

	_, err := f.orders.SetItemStatuses(f.ctx, order.ID, []StatusUpdate{
		{MenuItemID: f.pho.ID, Status: models.ItemInProgress},
		{MenuItemID: f.tra.ID, Status: models.ItemDone},
	})
	wantKind(t, err, KindInvalidTransition)

	got, err := f.orders.GetOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range got.Items {
		if line.Status != models.ItemNew {
			t.Fatalf("line %s = %s after rejected batch", line.Name, line.Status)
		}
	}

	updated, err := f.orders.SetItemStatuses(f.ctx, order.ID, []StatusUpdate{
		{MenuItemID: f.pho.ID, Status: models.ItemInProgress},
		{MenuItemID: f.tra.ID, Status: models.ItemInProgress},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range updated.Items {
		if line.Status != models.ItemInProgress {
			t.Fatalf("line %s = %s", line.Name, line.Status)
		}
	}
	if updated.TotalAmount != order.TotalAmount {
		t.Fatalf("status change moved total to %v", updated.TotalAmount)
	}
	if n := f.pub.count(models.EventItemStatus); n != 1 {
		t.Fatalf("itemStatus published %d times", n)
	}
}

func TestCheckoutCash(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)
	order := f.openTwoLines(t, table)

	closed, err := f.orders.Checkout(f.ctx, order.ID, models.PaymentCash, "")
	if err != nil {
		t.Fatal(err)
	}
	if !closed.IsCheckout || closed.PaymentMethod != models.PaymentCash || closed.CheckedOutAt == nil {
		t.Fatalf("closed order = %+v", closed)
	}
	if got := f.tableStatus(t, table.ID); got != models.TableAvailable {
		t.Fatalf("table status = %s, want available", got)
	}

	_, err = f.orders.Checkout(f.ctx, order.ID, models.PaymentCash, "")
	wantKind(t, err, KindConflict)
	if n := f.tracked.writes(table.ID, models.TableAvailable); n != 1 {
		t.Fatalf("table released %d times, want 1", n)
	}
	if n := f.pub.count(models.EventOrderCheckedOut); n != 1 {
		t.Fatalf("orderCheckedOut published %d times", n)
	}

	// The table takes a new order once it is free again.
	f.openTwoLines(t, table)
}

func TestConcurrentCheckout(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1)
	order := f.openTwoLines(t, table)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.Checkout(f.ctx, order.ID, models.PaymentCash, "")
			if err != nil {
				if KindOf(err) != KindConflict {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("%d checkouts succeeded, want 1", succeeded)
	}
	if n := f.tracked.writes(table.ID, models.TableAvailable); n != 1 {
		t.Fatalf("table released %d times, want 1", n)
	}
}

func TestCheckoutPayment(t *testing.T) {
	tests := []struct {
		name   string
		method models.PaymentMethod
		token  string
		kind   Kind
	}{
		{"card with approval code", models.PaymentCreditCard, "A1B2C3", ""},
		{"card without token", models.PaymentCreditCard, "", KindPaymentDeclined},
		{"card with short code", models.PaymentCreditCard, "12", KindPaymentDeclined},
		{"no method", models.PaymentNone, "", KindInvalidRequest},
		{"unknown method", "BITCOIN", "", KindInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			table := f.table(t, 1)
			order := f.openTwoLines(t, table)

			closed, err := f.orders.Checkout(f.ctx, order.ID, tt.method, tt.token)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if closed.PaymentMethod != tt.method {
					t.Fatalf("payment method = %s", closed.PaymentMethod)
				}
				return
			}
			wantKind(t, err, tt.kind)

			got, err := f.orders.GetOrder(f.ctx, order.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.IsCheckout {
				t.Fatal("order closed despite failed checkout")
			}
			if status := f.tableStatus(t, table.ID); status != models.TableOccupied {
				t.Fatalf("table status = %s, want occupied", status)
			}
		})
	}
}

func TestClosedOrderIsFrozen(t *testing.T) {
	f := newFixture(t)
	order := f.openTwoLines(t, f.table(t, 1))
	if _, err := f.orders.Checkout(f.ctx, order.ID, models.PaymentCash, ""); err != nil {
		t.Fatal(err)
	}

	_, err := f.orders.AppendItems(f.ctx, order.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}})
	wantKind(t, err, KindInvalidTransition)
	_, err = f.orders.UpdateItems(f.ctx, order.ID, []ItemRequest{{MenuItemID: f.pho.ID, Quantity: 1}})
	wantKind(t, err, KindInvalidTransition)
	_, err = f.orders.RemoveItem(f.ctx, order.ID, f.tra.ID)
	wantKind(t, err, KindInvalidTransition)
	_, err = f.orders.SetItemStatus(f.ctx, order.ID, f.pho.ID, models.ItemInProgress)
	wantKind(t, err, KindInvalidTransition)
}

func TestCheckoutUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.Checkout(f.ctx, primitive.NewObjectID(), models.PaymentCash, "")
	wantKind(t, err, KindNotFound)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	one := f.openTwoLines(t, f.table(t, 1))
	f.openTwoLines(t, f.table(t, 2))
	if _, err := f.orders.Checkout(f.ctx, one.ID, models.PaymentCash, ""); err != nil {
		t.Fatal(err)
	}

	all, err := f.orders.ListOrders(f.ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	open, err := f.orders.ListOrders(f.ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || len(open) != 1 {
		t.Fatalf("all = %d, open = %d", len(all), len(open))
	}
	if open[0].ID == one.ID {
		t.Fatal("closed order listed as open")
	}

	_, err = f.orders.OpenOrdersForTable(f.ctx, primitive.NewObjectID())
	wantKind(t, err, KindNotFound)
}
