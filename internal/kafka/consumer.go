package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler must return nil only when processing succeeded and the offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	log     *zap.Logger
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, log: log, workers: workers}
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.runWorker(ctx, jobs, h, c.r.CommitMessages)
		}()
	}

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			wg.Wait()
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil
		}
	}
}

// runWorker drains jobs until the channel closes. A failed handler is
// logged and its offset left uncommitted for redelivery; nothing is
// pushed back to the dispatcher, so a failing handler can never block
// shutdown.
func (c *Consumer) runWorker(ctx context.Context, jobs <-chan kafka.Message, h Handler, commit func(context.Context, ...kafka.Message) error) {
	for m := range jobs {
		if err := h(ctx, m); err != nil {
			c.log.Warn("consumer handler failed",
				zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		if err := commit(ctx, m); err != nil {
			c.log.Warn("offset commit failed",
				zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}
