package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

type SellerHandler struct {
	Transition *orders.Transitioner
	Store      orders.Store
	Redis      *redis.Client
	Log        *zap.Logger
}

func (h *SellerHandler) Register(r *chi.Mux) {
	r.Route("/orders/seller/orders", func(r chi.Router) {
		r.Use(RequireRole(orders.RoleSeller))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/status", h.patchStatus)
	})
}

func (h *SellerHandler) list(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	storeID, err := h.Store.StoreIDForSeller(ctx, actor.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	os, err := h.Store.ListByStore(ctx, storeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOrders(os))
}

func (h *SellerHandler) get(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// ownership: order's resolved seller id must match the caller
	sellerID, err := h.Store.SellerIDForOrder(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sellerID != actor.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	o, err := h.Store.GetOrder(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOrder(*o))
}

func (h *SellerHandler) patchStatus(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Transition.Transition(ctx, actor, chi.URLParam(r, "id"), req.Status, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Redis.Set(ctx, statusCacheKey(o.ID, o.UserID), statusCacheBody(o.Status), statusCacheTTL).Err(); err != nil {
		h.Log.Warn("status cache update failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, viewOrder(*o))
}
