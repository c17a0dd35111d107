package mirror

import (
	"time"

	"go-restaurant-pos/models"
)

// Snapshot is the denormalized projection of an order written to the
// realtime mirror. Field names follow what the kitchen and waiter apps read.
type Snapshot struct {
	TableID     string         `json:"tableId"`
	Items       []SnapshotItem `json:"items"`
	TotalAmount float64        `json:"totalAmount"`
	IsTakeaway  bool           `json:"isTakeaway"`
	IsCheckout  bool           `json:"isCheckout"`
	CreatedAt   string         `json:"createdAt"`
}

type SnapshotItem struct {
	MenuItemID string            `json:"menuItemId"`
	Name       string            `json:"name"`
	Quantity   int               `json:"quantity"`
	Status     models.ItemStatus `json:"status"`
	Note       string            `json:"note"`
}

func NewSnapshot(order *models.Order) Snapshot {
	items := make([]SnapshotItem, 0, len(order.Items))
	for _, it := range order.Items {
		status := it.Status
		if status == "" {
			status = models.ItemNew
		}
		items = append(items, SnapshotItem{
			MenuItemID: it.MenuItemID.Hex(),
			Name:       it.Name,
			Quantity:   it.Quantity,
			Status:     status,
			Note:       it.Note,
		})
	}
	return Snapshot{
		TableID:     order.TableID.Hex(),
		Items:       items,
		TotalAmount: order.TotalAmount,
		IsTakeaway:  order.IsTakeaway,
		IsCheckout:  order.IsCheckout,
		CreatedAt:   order.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Key is the mirror path of an order snapshot.
func Key(order *models.Order) string {
	return "orders/" + order.ID.Hex()
}
