package redisx

import "time"

const (
	// Checkout idempotency: idem:checkout:{buyer_id}:{idempotency_key} -> comma-joined order ids
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// Cache status per order, scoped to the owning buyer so a cache
	// hit can never cross buyers: order_status:{order_id}:{buyer_id}
	KeyOrderStatus = "order_status:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
