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

type AdminHandler struct {
	Transition *orders.Transitioner
	Store      orders.Store
	Redis      *redis.Client
	Log        *zap.Logger
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Route("/orders/admin", func(r chi.Router) {
		r.Use(RequireRole(orders.RoleAdmin))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/status", h.patchStatus)
		r.Post("/{id}/cancel", h.forceCancel)
	})
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Store.ListAll(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOrders(os))
}

func (h *AdminHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOrder(*o))
}

func (h *AdminHandler) patchStatus(w http.ResponseWriter, r *http.Request) {
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
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, viewOrder(*o))
}

// forceCancel bypasses the buyer/seller role tables; the reason rides
// only in the notification payload.
func (h *AdminHandler) forceCancel(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Transition.Cancel(ctx, actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, viewOrder(*o))
}

func (h *AdminHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	if err := h.Redis.Set(ctx, statusCacheKey(o.ID, o.UserID), statusCacheBody(o.Status), statusCacheTTL).Err(); err != nil {
		h.Log.Warn("status cache update failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}
