package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment.git/internal/redisx"
)

type OrdersHandler struct {
	Checkout   *orders.Service
	Transition *orders.Transitioner
	Store      orders.Store
	Redis      *redis.Client
	Log        *zap.Logger
}

type createOrderReq struct {
	AddressID      string   `json:"address_id"`
	PaymentMethod  string   `json:"payment_method"`
	Notes          string   `json:"notes,omitempty"`
	DiscountCodes  []string `json:"discount_codes,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

type snapshotLineReq struct {
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
}

type snapshotOrderReq struct {
	Lines          []snapshotLineReq      `json:"lines"`
	Address        orders.AddressSnapshot `json:"address"`
	PaymentMethod  string                 `json:"payment_method"`
	Notes          string                 `json:"notes,omitempty"`
	DiscountCodes  []string               `json:"discount_codes,omitempty"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
}

type statusReq struct {
	Status orders.Status `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(orders.RoleBuyer))
			r.Post("/", h.createOrder)
			r.Post("/snapshot", h.createOrderFromSnapshot)
			r.Get("/", h.listOwn)
			r.Get("/{id}", h.getOwn)
			r.Get("/{id}/status", h.getStatus)
			r.Patch("/{id}/status", h.patchStatus)
			r.Post("/{id}/cancel", h.cancel)
		})
	})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path idempotency via Redis; the DB key column is the backstop.
	if req.IdempotencyKey != "" {
		idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, actor.UserID, req.IdempotencyKey)
		if ok, _ := redisx.Exists(ctx, h.Redis, idemKey); ok {
			existing, err := h.Store.FindByIdempotencyKey(ctx, actor.UserID, req.IdempotencyKey)
			if err == nil && len(existing) > 0 {
				writeJSON(w, http.StatusOK, viewOrders(existing))
				return
			}
		}
	}

	created, err := h.Checkout.CreateOrder(ctx, actor.UserID, orders.CreateOrderInput{
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		DiscountCodes:  req.DiscountCodes,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.afterCreate(ctx, actor.UserID, req.IdempotencyKey, created)
	writeJSON(w, http.StatusCreated, viewOrders(created))
}

func (h *OrdersHandler) createOrderFromSnapshot(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req snapshotOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	lines := make([]orders.CartLine, 0, len(req.Lines))
	for _, ln := range req.Lines {
		price, err := decimal.NewFromString(ln.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid unit price")
			return
		}
		lines = append(lines, orders.CartLine{
			ProductID: ln.ProductID,
			StoreID:   ln.StoreID,
			Quantity:  ln.Quantity,
			UnitPrice: price,
			Name:      ln.Name,
			ImageURL:  ln.ImageURL,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Checkout.CreateOrderFromSnapshot(ctx, actor.UserID, orders.SnapshotOrderInput{
		Lines:          lines,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		DiscountCodes:  req.DiscountCodes,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.afterCreate(ctx, actor.UserID, req.IdempotencyKey, created)
	writeJSON(w, http.StatusCreated, viewOrders(created))
}

func (h *OrdersHandler) afterCreate(ctx context.Context, buyerID, idemKey string, created []orders.Order) {
	if idemKey != "" {
		ids := make([]string, 0, len(created))
		for _, o := range created {
			ids = append(ids, o.ID)
		}
		key := fmt.Sprintf(redisx.KeyIdemCheckout, buyerID, idemKey)
		_ = h.Redis.Set(ctx, key, strings.Join(ids, ","), redisx.TTLIdempotency).Err()
	}
	for _, o := range created {
		_ = h.Redis.Set(ctx, statusCacheKey(o.ID, o.UserID), statusCacheBody(o.Status), statusCacheTTL).Err()
	}
}

func (h *OrdersHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Store.ListByBuyer(ctx, actor.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOrders(os))
}

func (h *OrdersHandler) getOwn(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if o.UserID != actor.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, viewOrder(*o))
}

// getStatus is the cheap poll endpoint: cache first, DB fallback.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := statusCacheKey(orderID, actor.UserID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Store.GetOrder(ctx, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if o.UserID != actor.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	body, _ := json.Marshal(map[string]any{"status": o.Status})
	_ = h.Redis.Set(ctx, key, body, statusCacheTTL).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *OrdersHandler) patchStatus(w http.ResponseWriter, r *http.Request) {
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

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req statusReq
	_ = json.NewDecoder(r.Body).Decode(&req) // body optional on cancel

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

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	if err := h.Redis.Set(ctx, statusCacheKey(o.ID, o.UserID), statusCacheBody(o.Status), statusCacheTTL).Err(); err != nil {
		h.Log.Warn("status cache update failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}
