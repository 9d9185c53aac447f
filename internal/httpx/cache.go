package httpx

import (
	"fmt"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/redisx"
)

var statusCacheTTL = redisx.TTLStatusCache

// The buyer id rides in the key: a poll by anyone else misses the
// cache and falls through to the DB path, where ownership is checked.
func statusCacheKey(orderID, buyerID string) string {
	return fmt.Sprintf(redisx.KeyOrderStatus, orderID, buyerID)
}

func statusCacheBody(s orders.Status) string {
	return fmt.Sprintf(`{"status":%q}`, s)
}
