package orders

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// NumberGenerator produces globally-unique human-readable order
// numbers. The orders.order_number unique constraint is the final
// backstop, but generators are expected to never collide.
type NumberGenerator interface {
	Next() string
}

// ULIDGenerator issues ULID-based order numbers: sortable by creation
// time, no coordination required. Entropy and clock are injectable so
// tests can pin the output.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}
}

func NewULIDGeneratorAt(entropy io.Reader, now func() time.Time) *ULIDGenerator {
	return &ULIDGenerator{entropy: entropy, now: now}
}

func (g *ULIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return "ORD-" + ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
