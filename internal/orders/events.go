package orders

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BuyerID     string `json:"buyer_id"`
	StoreID     string `json:"store_id"`
	TotalAmount string `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

type StatusChangedPayload struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	PreviousStatus Status `json:"previous_status"`
	CurrentStatus  Status `json:"current_status"`
	ActorRole      Role   `json:"actor_role"`
	Reason         string `json:"reason,omitempty"` // admin force-cancel only
}

// Notification is what the fan-out collaborator receives after a
// committed change. SellerUserIDs come from the order's store owner.
type Notification struct {
	EventType     string
	OrderID       string
	BuyerUserID   string
	SellerUserIDs []string
	Payload       any
}

// Notifier is invoked best-effort after commit. Implementations must
// never block or fail the caller's transaction; errors are logged by
// the caller and not retried.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
