package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-restaurant-pos/database"
	"go-restaurant-pos/logger"
	"go-restaurant-pos/models"
	"go-restaurant-pos/payment"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemRequest asks for quantity of a menu item. Note is optional.
type ItemRequest struct {
	MenuItemID primitive.ObjectID
	Quantity   int
	Note       string
}

type StatusUpdate struct {
	MenuItemID primitive.ObjectID
	Status     models.ItemStatus
}

// OrderService is the order lifecycle manager. It owns order creation, item
// mutations and checkout, and keeps at most one open order per physical table.
//
// Item mutations are read-modify-write over the whole order document. They are
// serialized per order in process and guarded by the order version in the
// store, so a lost race surfaces as a Conflict instead of a lost update.
type OrderService struct {
	orders    OrderStore
	tables    *TableService
	catalog   Catalog
	publisher Publisher
	payments  PaymentAuthorizer
	log       *logger.Logger

	orderLocks *keyedMutex
	now        func() time.Time
	newToken   func() string
}

func NewOrderService(orders OrderStore, tables *TableService, catalog Catalog, publisher Publisher, payments PaymentAuthorizer, log *logger.Logger) *OrderService {
	return &OrderService{
		orders:     orders,
		tables:     tables,
		catalog:    catalog,
		publisher:  publisher,
		payments:   payments,
		log:        log,
		orderLocks: newKeyedMutex(),
		now:        func() time.Time { return time.Now().UTC() },
		newToken:   func() string { return uuid.NewString() },
	}
}

// OpenOrder creates an order against tableID. Physical tables must be free;
// the takeaway table accepts any number of orders, each identified by its own
// correlation token. Nothing is written unless every item prices.
func (s *OrderService) OpenOrder(ctx context.Context, tableID primitive.ObjectID, items []ItemRequest, isTakeaway bool) (*models.Order, error) {
	requested, err := mergeRequests(items)
	if err != nil {
		return nil, err
	}

	// A dine-in table is looked up under its lock so a concurrent delete
	// cannot remove it between the lookup and the insert.
	if !isTakeaway {
		unlock := s.tables.lock(tableID)
		defer unlock()
	}

	table, err := s.tables.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if isTakeaway && !table.IsTakeaway {
		return nil, newError(KindInvalidRequest, "table %d is not a takeaway table", table.TableNumber)
	}
	if !isTakeaway && table.IsTakeaway {
		return nil, newError(KindInvalidRequest, "cannot use the takeaway table for a dine-in order")
	}

	if !isTakeaway {
		open, err := s.orders.HasOpenOrder(ctx, tableID)
		if err != nil {
			return nil, storeError(err, "check open orders")
		}
		if open {
			return nil, newError(KindConflict, "table %d already has an open order", table.TableNumber)
		}
	}

	lines := make([]models.OrderItem, 0, len(requested))
	for _, req := range requested {
		line, err := s.price(ctx, req)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	var token string
	if isTakeaway {
		token = s.newToken()
	}
	order := models.NewOrder(tableID, lines, isTakeaway, token)
	order.CreatedAt = s.now()
	order.UpdatedAt = order.CreatedAt

	// The store enforces one open order per physical table on insert, which
	// also covers writers outside this process.
	if err := s.orders.InsertOrder(ctx, order); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, &Error{Kind: KindConflict, Msg: "table already has an open order", Err: err}
		}
		return nil, storeError(err, "insert order")
	}

	if err := s.tables.SetOccupied(ctx, tableID); err != nil {
		// The open order is authoritative for occupancy; the flag is a view.
		s.log.Error("order_open", "failed to mark table occupied", err,
			slog.String("order_id", order.ID.Hex()), slog.String("table_id", tableID.Hex()))
	}

	s.log.Info("order_open", "order opened",
		slog.String("order_id", order.ID.Hex()),
		slog.String("table_id", tableID.Hex()),
		slog.Bool("takeaway", isTakeaway),
		slog.Float64("total", order.TotalAmount))
	s.publisher.Publish(ctx, models.EventNewOrder, order)
	return order, nil
}

// AppendItems adds items to an open order. An item already on the order is
// merged into its line while that line is still NEW; the merged line keeps
// its original price snapshot.
func (s *OrderService) AppendItems(ctx context.Context, orderID primitive.ObjectID, items []ItemRequest) (*models.Order, error) {
	requested, err := mergeRequests(items)
	if err != nil {
		return nil, err
	}

	unlock := s.orderLocks.Lock(orderID.Hex())
	defer unlock()

	order, err := s.openOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines := order.CloneItems()
	var added []ItemRequest
	for _, req := range requested {
		idx := order.Item(req.MenuItemID)
		if idx < 0 {
			added = append(added, req)
			continue
		}
		if lines[idx].Status != models.ItemNew {
			return nil, newError(KindInvalidTransition, "item %s is %s and can no longer be changed", lines[idx].Name, lines[idx].Status)
		}
		lines[idx].Quantity += req.Quantity
		if req.Note != "" {
			lines[idx].Note = req.Note
		}
	}
	for _, req := range added {
		line, err := s.price(ctx, req)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return s.replaceItems(ctx, order, lines, models.EventOrderUpdated)
}

// UpdateItems sets the quantity of existing NEW lines and recomputes the
// total from every line.
func (s *OrderService) UpdateItems(ctx context.Context, orderID primitive.ObjectID, items []ItemRequest) (*models.Order, error) {
	if len(items) == 0 {
		return nil, newError(KindInvalidRequest, "items are required")
	}
	seen := map[primitive.ObjectID]bool{}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, newError(KindInvalidRequest, "quantity for item %s must be positive", it.MenuItemID.Hex())
		}
		if seen[it.MenuItemID] {
			return nil, newError(KindInvalidRequest, "item %s listed twice", it.MenuItemID.Hex())
		}
		seen[it.MenuItemID] = true
	}

	unlock := s.orderLocks.Lock(orderID.Hex())
	defer unlock()

	order, err := s.openOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines := order.CloneItems()
	for _, it := range items {
		idx := order.Item(it.MenuItemID)
		if idx < 0 {
			return nil, newError(KindNotFound, "item %s not found in order", it.MenuItemID.Hex())
		}
		if lines[idx].Status != models.ItemNew {
			return nil, newError(KindInvalidTransition, "cannot edit item %s because its status is %s", lines[idx].Name, lines[idx].Status)
		}
		lines[idx].Quantity = it.Quantity
		if it.Note != "" {
			lines[idx].Note = it.Note
		}
	}

	return s.replaceItems(ctx, order, lines, models.EventOrderUpdated)
}

// RemoveItem drops a NEW line. An order always keeps at least one line.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, menuItemID primitive.ObjectID) (*models.Order, error) {
	unlock := s.orderLocks.Lock(orderID.Hex())
	defer unlock()

	order, err := s.openOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	idx := order.Item(menuItemID)
	if idx < 0 {
		return nil, newError(KindNotFound, "item %s not found in order", menuItemID.Hex())
	}
	if order.Items[idx].Status != models.ItemNew {
		return nil, newError(KindInvalidTransition, "cannot remove item %s because its status is %s", order.Items[idx].Name, order.Items[idx].Status)
	}
	if len(order.Items) == 1 {
		return nil, newError(KindInvalidRequest, "an order must keep at least one item")
	}

	lines := order.CloneItems()
	lines = append(lines[:idx], lines[idx+1:]...)
	return s.replaceItems(ctx, order, lines, models.EventOrderUpdated)
}

func (s *OrderService) SetItemStatus(ctx context.Context, orderID, menuItemID primitive.ObjectID, status models.ItemStatus) (*models.Order, error) {
	return s.SetItemStatuses(ctx, orderID, []StatusUpdate{{MenuItemID: menuItemID, Status: status}})
}

// SetItemStatuses moves items one step forward through NEW, INPROGRESS, DONE.
// Every update is validated before any is applied, and all of them are
// written together.
func (s *OrderService) SetItemStatuses(ctx context.Context, orderID primitive.ObjectID, updates []StatusUpdate) (*models.Order, error) {
	if len(updates) == 0 {
		return nil, newError(KindInvalidRequest, "items are required")
	}
	seen := map[primitive.ObjectID]bool{}
	for _, u := range updates {
		if !u.Status.Valid() {
			return nil, newError(KindInvalidRequest, "unknown item status %q", u.Status)
		}
		if seen[u.MenuItemID] {
			return nil, newError(KindInvalidRequest, "item %s listed twice", u.MenuItemID.Hex())
		}
		seen[u.MenuItemID] = true
	}

	unlock := s.orderLocks.Lock(orderID.Hex())
	defer unlock()

	order, err := s.openOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines := order.CloneItems()
	for _, u := range updates {
		idx := order.Item(u.MenuItemID)
		if idx < 0 {
			return nil, newError(KindNotFound, "item %s not found in order", u.MenuItemID.Hex())
		}
		if !lines[idx].Status.CanAdvanceTo(u.Status) {
			return nil, newError(KindInvalidTransition, "item %s cannot move from %s to %s", lines[idx].Name, lines[idx].Status, u.Status)
		}
	}
	for _, u := range updates {
		lines[order.Item(u.MenuItemID)].Status = u.Status
	}

	updated, err := s.orders.ReplaceItems(ctx, order.ID, order.Version, lines, order.TotalAmount)
	if err != nil {
		return nil, storeError(err, "update item status")
	}
	s.publisher.Publish(ctx, models.EventItemStatus, updated)
	return updated, nil
}

// Checkout settles and closes an order, then releases its table. A second
// checkout of the same order is a Conflict: it never charges or releases
// twice.
func (s *OrderService) Checkout(ctx context.Context, orderID primitive.ObjectID, method models.PaymentMethod, paymentToken string) (*models.Order, error) {
	if method != models.PaymentCash && method != models.PaymentCreditCard {
		return nil, newError(KindInvalidRequest, "payment method is required and must be valid")
	}

	unlock := s.orderLocks.Lock(orderID.Hex())
	defer unlock()

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsCheckout {
		return nil, newError(KindConflict, "order has already been checked out")
	}

	if !order.IsTakeaway {
		// Close and release under the table lock so a new order opened right
		// after checkout cannot have its occupancy undone by this release.
		unlockTable := s.tables.lock(order.TableID)
		defer unlockTable()
	}

	if err := s.payments.Authorize(ctx, order, method, paymentToken); err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			return nil, &Error{Kind: KindPaymentDeclined, Msg: "payment failed or not confirmed", Err: err}
		}
		return nil, err
	}

	closed, err := s.orders.CloseOrder(ctx, orderID, method, s.now())
	if err != nil {
		if errors.Is(err, database.ErrStale) {
			return nil, &Error{Kind: KindConflict, Msg: "order has already been checked out", Err: err}
		}
		return nil, storeError(err, "close order")
	}

	if err := s.tables.Release(ctx, closed.TableID); err != nil {
		s.log.Error("order_checkout", "failed to release table", err,
			slog.String("order_id", closed.ID.Hex()), slog.String("table_id", closed.TableID.Hex()))
	}

	s.log.Info("order_checkout", "order checked out",
		slog.String("order_id", closed.ID.Hex()),
		slog.String("method", string(method)),
		slog.Float64("total", closed.TotalAmount))
	s.publisher.Publish(ctx, models.EventOrderCheckedOut, closed)
	return closed, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindOrder(ctx, id)
	if err != nil {
		return nil, storeError(err, "find order")
	}
	return order, nil
}

// OpenOrdersForTable lists the orders of a table that are not checked out.
func (s *OrderService) OpenOrdersForTable(ctx context.Context, tableID primitive.ObjectID) ([]models.Order, error) {
	if _, err := s.tables.GetTable(ctx, tableID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{TableID: tableID, OpenOnly: true})
	if err != nil {
		return nil, storeError(err, "list table orders")
	}
	return orders, nil
}

// TakeawayOrder looks an order up by its takeaway correlation token.
func (s *OrderService) TakeawayOrder(ctx context.Context, token string) (*models.Order, error) {
	if token == "" {
		return nil, newError(KindInvalidRequest, "takeaway id is required")
	}
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{UniqueID: token})
	if err != nil {
		return nil, storeError(err, "find takeaway order")
	}
	if len(orders) == 0 {
		return nil, newError(KindNotFound, "order not found")
	}
	return &orders[0], nil
}

func (s *OrderService) ListOrders(ctx context.Context, openOnly bool) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{OpenOnly: openOnly})
	if err != nil {
		return nil, storeError(err, "list orders")
	}
	return orders, nil
}

func (s *OrderService) openOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsCheckout {
		return nil, newError(KindInvalidTransition, "order has been checked out and can no longer change")
	}
	return order, nil
}

func (s *OrderService) replaceItems(ctx context.Context, order *models.Order, lines []models.OrderItem, event string) (*models.Order, error) {
	updated, err := s.orders.ReplaceItems(ctx, order.ID, order.Version, lines, models.SumItems(lines))
	if err != nil {
		return nil, storeError(err, "update order items")
	}
	s.publisher.Publish(ctx, event, updated)
	return updated, nil
}

// price snapshots the catalog name and price into a NEW line.
func (s *OrderService) price(ctx context.Context, req ItemRequest) (models.OrderItem, error) {
	item, err := s.catalog.GetItem(ctx, req.MenuItemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.OrderItem{}, &Error{Kind: KindNotFound, Msg: "menu item " + req.MenuItemID.Hex() + " not found", Err: err}
		}
		return models.OrderItem{}, storeError(err, "price menu item")
	}
	return models.OrderItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   req.Quantity,
		Note:       req.Note,
		Status:     models.ItemNew,
	}, nil
}

// mergeRequests validates a non-empty item list and folds repeated menu items
// into one request, keeping first-seen order.
func mergeRequests(items []ItemRequest) ([]ItemRequest, error) {
	if len(items) == 0 {
		return nil, newError(KindInvalidRequest, "items are required")
	}
	merged := make([]ItemRequest, 0, len(items))
	index := map[primitive.ObjectID]int{}
	for _, it := range items {
		if it.MenuItemID.IsZero() {
			return nil, newError(KindInvalidRequest, "menu item id is required")
		}
		if it.Quantity <= 0 {
			return nil, newError(KindInvalidRequest, "quantity for item %s must be positive", it.MenuItemID.Hex())
		}
		if i, ok := index[it.MenuItemID]; ok {
			merged[i].Quantity += it.Quantity
			if it.Note != "" {
				merged[i].Note = it.Note
			}
			continue
		}
		index[it.MenuItemID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}
