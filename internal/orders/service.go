package orders

import (
	"context"

	"go.uber.org/zap"
)

// Service is the transactional order orchestrator: it turns a buyer's
// selected cart lines into one persisted order per seller store, all
// inside a single unit of work, and runs the best-effort side effects
// after commit.
type Service struct {
	Store    Store
	Builder  *Builder
	Cart     CartCollaborator
	Address  AddressCollaborator
	Discount DiscountCollaborator
	Notifier Notifier
	Log      *zap.Logger
}

type CreateOrderInput struct {
	AddressID      string
	PaymentMethod  string
	Notes          string
	DiscountCodes  []string
	IdempotencyKey string
}

// SnapshotOrderInput replays a previously saved cart snapshot and
// address snapshot ("buy again" flows); the live cart is untouched.
type SnapshotOrderInput struct {
	Lines          []CartLine
	Address        AddressSnapshot
	PaymentMethod  string
	Notes          string
	DiscountCodes  []string
	IdempotencyKey string
}

// CreateOrder creates one order per store from the buyer's selected
// cart lines. Any failure anywhere aborts the entire multi-store
// batch: partial orders or partial reservations are never persisted.
func (s *Service) CreateOrder(ctx context.Context, buyerID string, in CreateOrderInput) ([]Order, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.Store.FindByIdempotencyKey(ctx, buyerID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return existing, nil
		}
	}

	lines, err := s.Cart.SelectedLines(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptySelection
	}

	addr, err := s.Address.Resolve(ctx, in.AddressID, buyerID)
	if err != nil {
		return nil, err
	}
	if addr.Empty() {
		return nil, ErrMissingAddress
	}

	created, err := s.create(ctx, buyerID, lines, addr, in.PaymentMethod, in.Notes, in.DiscountCodes, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	// Cart cleanup is best-effort: the orders are already durable, so
	// a failure here is logged, never propagated.
	if err := s.Cart.RemoveSelected(ctx, buyerID); err != nil {
		s.Log.Warn("cart cleanup failed after checkout",
			zap.String("buyer_id", buyerID), zap.Error(err))
	}

	s.notifyCreated(ctx, created)
	return created, nil
}

// CreateOrderFromSnapshot funnels saved snapshots into the same
// grouping/reservation/persistence pipeline as CreateOrder.
func (s *Service) CreateOrderFromSnapshot(ctx context.Context, buyerID string, in SnapshotOrderInput) ([]Order, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.Store.FindByIdempotencyKey(ctx, buyerID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return existing, nil
		}
	}
	if len(in.Lines) == 0 {
		return nil, ErrEmptySelection
	}
	if in.Address.Empty() {
		return nil, ErrMissingAddress
	}

	created, err := s.create(ctx, buyerID, in.Lines, in.Address, in.PaymentMethod, in.Notes, in.DiscountCodes, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	s.notifyCreated(ctx, created)
	return created, nil
}

func (s *Service) create(ctx context.Context, buyerID string, lines []CartLine, addr AddressSnapshot, paymentMethod, notes string, discountCodes []string, idemKey string) ([]Order, error) {
	drafts, err := s.Builder.Build(buyerID, lines, addr, paymentMethod, notes)
	if err != nil {
		return nil, err
	}

	for i := range drafts {
		drafts[i].IdempotencyKey = idemKey
		for _, code := range discountCodes {
			res, err := s.Discount.Validate(ctx, code, drafts[i].TotalAmount)
			if err != nil {
				return nil, err
			}
			if !res.Valid {
				s.Log.Info("discount code rejected",
					zap.String("code", code), zap.String("reason", res.Reason))
				continue
			}
			drafts[i].ApplyDiscount(res.Type, res.Amount)
		}
	}

	created := make([]Order, 0, len(drafts))
	err = s.Store.WithinTx(ctx, func(uow UnitOfWork) error {
		created = created[:0]
		for i := range drafts {
			for _, item := range drafts[i].Items {
				// A failed reservation aborts the whole batch; the
				// rolled-back transaction undoes reservations already
				// applied for earlier stores.
				if err := uow.ReserveStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			if err := uow.InsertOrder(ctx, &drafts[i]); err != nil {
				return err
			}
			created = append(created, drafts[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Re-fetch with generated ids and relations.
	out := make([]Order, 0, len(created))
	for _, o := range created {
		full, err := s.Store.GetOrder(ctx, o.ID)
		if err != nil {
			// committed already; fall back to the in-memory copy
			s.Log.Warn("refetch after checkout failed", zap.String("order_id", o.ID), zap.Error(err))
			out = append(out, o)
			continue
		}
		out = append(out, *full)
	}
	return out, nil
}

func (s *Service) notifyCreated(ctx context.Context, created []Order) {
	for _, o := range created {
		sellerID, err := s.Store.SellerIDForOrder(ctx, o.ID)
		var sellers []string
		if err == nil && sellerID != "" {
			sellers = []string{sellerID}
		}
		n := Notification{
			EventType:     EventOrderCreated,
			OrderID:       o.ID,
			BuyerUserID:   o.UserID,
			SellerUserIDs: sellers,
			Payload: OrderCreatedPayload{
				OrderID:     o.ID,
				OrderNumber: o.OrderNumber,
				BuyerID:     o.UserID,
				StoreID:     o.StoreID,
				TotalAmount: o.TotalAmount.String(),
				ItemCount:   len(o.Items),
			},
		}
		if err := s.Notifier.Notify(ctx, n); err != nil {
			s.Log.Warn("order created notification failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}
}
