// Package notify carries committed order changes to the notification
// collaborator. The producer side publishes versioned envelopes to
// Kafka after the transaction commits; delivery (email, SSE) is an
// external concern consumed by the notifier service.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-order-fulfillment.git/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

// KafkaNotifier implements orders.Notifier. Publish goes through the
// producer's buffered inbox, so the caller never blocks on the broker
// and a broker outage never reaches the committed transaction.
type KafkaNotifier struct {
	Created       *kafkax.Producer // topic order.created
	StatusChanged *kafkax.Producer // topic order.status.changed
	ServiceName   string
}

func (n *KafkaNotifier) Notify(ctx context.Context, note orders.Notification) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     note.EventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      n.ServiceName,
		CorrelationID: note.OrderID,
	}
	ev.Payload = kafkax.MustMarshal(wirePayload{
		BuyerUserID:   note.BuyerUserID,
		SellerUserIDs: note.SellerUserIDs,
		Body:          note.Payload,
	})

	p := n.StatusChanged
	if note.EventType == orders.EventOrderCreated {
		p = n.Created
	}
	p.Publish(orders.PartitionKey(note.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(note.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

// wirePayload wraps the event body with its recipients so the
// notifier service can fan out without re-querying the store.
type wirePayload struct {
	BuyerUserID   string   `json:"buyer_user_id"`
	SellerUserIDs []string `json:"seller_user_ids"`
	Body          any      `json:"body"`
}
