package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-order-fulfillment.git/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/redisx"
)

// Sink delivers one notification to a recipient. The production sink
// is the external email/SSE transport; the default logs the delivery.
type Sink interface {
	Deliver(ctx context.Context, userID string, ev orders.Envelope) error
}

// LogSink stands in for the delivery transport.
type LogSink struct{ Log *zap.Logger }

func (s *LogSink) Deliver(ctx context.Context, userID string, ev orders.Envelope) error {
	s.Log.Info("notification delivered",
		zap.String("user_id", userID),
		zap.String("event_type", ev.EventType),
		zap.String("order_id", ev.CorrelationID))
	return nil
}

// Service consumes order event topics and fans each event out to the
// buyer and the sellers named in it. Delivery is at-least-once; the
// Redis dedup key keeps redeliveries quiet.
type Service struct {
	Redis       *redis.Client
	Sink        Sink
	Log         *zap.Logger
	ServiceName string
}

func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated && env.EventType != orders.EventStatusChanged {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[wirePayload](env.Payload)
	if err != nil {
		return err
	}

	recipients := append([]string{p.BuyerUserID}, p.SellerUserIDs...)
	for _, userID := range recipients {
		if userID == "" {
			continue
		}
		if err := s.Sink.Deliver(ctx, userID, env); err != nil {
			// fan-out is best effort per recipient
			s.Log.Warn("notification delivery failed",
				zap.String("user_id", userID),
				zap.String("event_id", env.EventID),
				zap.Error(err))
		}
	}
	return nil
}
