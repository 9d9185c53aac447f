package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/inventory"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

// InventoryHandler exposes the ledger's read side and the direct
// stock-count correction. Reservation/commit/release only ever happen
// as order side effects, never over HTTP.
type InventoryHandler struct {
	DB inventory.Querier
}

type setQuantityReq struct {
	Quantity int64 `json:"quantity"`
}

type inventoryView struct {
	ProductID   string    `json:"product_id"`
	Quantity    int64     `json:"quantity"`
	Reserved    int64     `json:"reserved"`
	Available   int64     `json:"available"`
	LastUpdated time.Time `json:"last_updated"`
}

func (h *InventoryHandler) Register(r *chi.Mux) {
	r.Route("/inventory", func(r chi.Router) {
		r.Use(RequireAnyRole(orders.RoleSeller, orders.RoleAdmin))
		r.Get("/{productId}", h.get)
		r.Patch("/{productId}", h.setQuantity)
	})
}

func (h *InventoryHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rec, err := inventory.Get(ctx, h.DB, chi.URLParam(r, "productId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventoryView{
		ProductID:   rec.ProductID,
		Quantity:    rec.Quantity,
		Reserved:    rec.Reserved,
		Available:   rec.Available(),
		LastUpdated: rec.LastUpdated,
	})
}

func (h *InventoryHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	productID := chi.URLParam(r, "productId")
	// a product created before its first count gets its zero row here
	if err := inventory.EnsureRecord(ctx, h.DB, productID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := inventory.SetQuantity(ctx, h.DB, productID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	rec, err := inventory.Get(ctx, h.DB, productID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventoryView{
		ProductID:   rec.ProductID,
		Quantity:    rec.Quantity,
		Reserved:    rec.Reserved,
		Available:   rec.Available(),
		LastUpdated: rec.LastUpdated,
	})
}
