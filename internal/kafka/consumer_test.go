package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// A worker must keep draining and then return when the channel closes
// even if every message fails, so shutdown can never hang on a broken
// handler.
func TestRunWorkerDrainsDespiteHandlerErrors(t *testing.T) {
	c := &Consumer{log: zap.NewNop(), workers: 1}

	const n = 200
	jobs := make(chan kafka.Message, n)
	for i := 0; i < n; i++ {
		jobs <- kafka.Message{Topic: "t", Offset: int64(i)}
	}
	close(jobs)

	handled := 0
	committed := 0
	// runs synchronously: returning at all proves no blocking send
	c.runWorker(context.Background(), jobs, func(ctx context.Context, m kafka.Message) error {
		handled++
		if m.Offset%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}, func(ctx context.Context, ms ...kafka.Message) error {
		committed += len(ms)
		return nil
	})

	if handled != n {
		t.Fatalf("handled %d messages, want %d", handled, n)
	}
	// failed offsets stay uncommitted for redelivery
	if committed != n/2 {
		t.Fatalf("committed %d offsets, want %d", committed, n/2)
	}
}

func TestRunWorkerCommitFailureDoesNotStopDraining(t *testing.T) {
	c := &Consumer{log: zap.NewNop(), workers: 1}

	jobs := make(chan kafka.Message, 3)
	for i := 0; i < 3; i++ {
		jobs <- kafka.Message{Topic: "t", Offset: int64(i)}
	}
	close(jobs)

	handled := 0
	c.runWorker(context.Background(), jobs, func(ctx context.Context, m kafka.Message) error {
		handled++
		return nil
	}, func(ctx context.Context, ms ...kafka.Message) error {
		return fmt.Errorf("commit refused at offset %d", ms[0].Offset)
	})
	if handled != 3 {
		t.Fatalf("handled %d, want 3", handled)
	}
}
