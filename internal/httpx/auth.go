package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

// Token issuance and verification live upstream; by the time a request
// reaches this service the gateway has resolved the caller into the
// X-User-Id / X-User-Role headers.

type ctxKey int

const actorKey ctxKey = iota

func ActorFrom(r *http.Request) orders.Actor {
	a, _ := r.Context().Value(actorKey).(orders.Actor)
	return a
}

// RequireRole rejects callers whose resolved role does not match.
func RequireRole(role orders.Role) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

// RequireAnyRole admits callers holding one of the given roles.
func RequireAnyRole(roles ...orders.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-Id")
			got := orders.Role(r.Header.Get("X-User-Role"))
			ok := false
			for _, role := range roles {
				if got == role {
					ok = true
					break
				}
			}
			if userID == "" || !ok {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			actor := orders.Actor{UserID: userID, Role: got}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}
