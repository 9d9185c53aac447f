package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/inventory"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses with
// enough context for a user-facing message.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		transitionErr *orders.TransitionError
		stockErr      *inventory.InsufficientStockError
		stateErr      *inventory.InvalidStateError
	)
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, orders.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, orders.ErrEmptySelection), errors.Is(err, orders.ErrMissingAddress):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &transitionErr):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":            "invalid transition",
			"current_status":   string(transitionErr.Current),
			"requested_status": string(transitionErr.Requested),
		})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, stateErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
