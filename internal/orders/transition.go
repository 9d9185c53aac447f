package orders

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Transitioner validates and applies actor-scoped status transitions.
// Each transition is one unit of work: the order row is read under a
// row lock, the role table is consulted, the matching timestamp is
// stamped, and the inventory side effects for SHIPPED/CANCELLED run
// in the same transaction. Fan-out happens after commit, best-effort.
type Transitioner struct {
	Store    Store
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

// Transition moves order orderID from its current status to next on
// behalf of actor. reason is recorded in the notification payload
// only (admin force-cancel); it is not an order column.
func (t *Transitioner) Transition(ctx context.Context, actor Actor, orderID string, next Status, reason string) (*Order, error) {
	if !ValidStatus(next) {
		return nil, &TransitionError{OrderID: orderID, Role: actor.Role, Requested: next}
	}

	if err := t.authorize(ctx, actor, orderID); err != nil {
		return nil, err
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}

	var updated Order
	var prev Status
	err := t.Store.WithinTx(ctx, func(uow UnitOfWork) error {
		o, err := uow.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(actor.Role, o.Status, next) {
			return &TransitionError{OrderID: orderID, Role: actor.Role, Current: o.Status, Requested: next}
		}

		at := now().UTC()
		if err := uow.SetStatus(ctx, orderID, next, at); err != nil {
			return err
		}

		switch next {
		case StatusShipped:
			// goods leave the warehouse: reservations become decrements
			for _, item := range o.Items {
				if err := uow.CommitReserved(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case StatusCancelled:
			for _, item := range o.Items {
				if o.ShippedAt == nil {
					if err := uow.ReleaseReserved(ctx, item.ProductID, item.Quantity); err != nil {
						return err
					}
				} else {
					// reservations were consumed at shipment; return
					// the units to sellable stock instead
					if err := uow.Restock(ctx, item.ProductID, item.Quantity); err != nil {
						return err
					}
				}
			}
		}

		updated = *o
		prev = o.Status
		updated.Status = next
		stamp(&updated, next, at)
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.notifyChanged(ctx, &updated, prev, actor, reason)
	return &updated, nil
}

// Cancel is the buyer/seller/admin cancellation entry point.
func (t *Transitioner) Cancel(ctx context.Context, actor Actor, orderID, reason string) (*Order, error) {
	return t.Transition(ctx, actor, orderID, StatusCancelled, reason)
}

func (t *Transitioner) authorize(ctx context.Context, actor Actor, orderID string) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleBuyer:
		o, err := t.Store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != actor.UserID {
			return ErrForbidden
		}
		return nil
	case RoleSeller:
		sellerID, err := t.Store.SellerIDForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if sellerID != actor.UserID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

// stamp sets exactly the timestamp column matching the new status.
// Timestamps are never cleared once set.
func stamp(o *Order, next Status, at time.Time) {
	switch next {
	case StatusPaid:
		o.PaidAt = &at
	case StatusShipped:
		o.ShippedAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	case StatusCompleted:
		o.CompletedAt = &at
	case StatusCancelled:
		o.CancelledAt = &at
	}
	o.UpdatedAt = at
}

func (t *Transitioner) notifyChanged(ctx context.Context, o *Order, prev Status, actor Actor, reason string) {
	sellerID, err := t.Store.SellerIDForOrder(ctx, o.ID)
	var sellers []string
	if err == nil && sellerID != "" {
		sellers = []string{sellerID}
	}
	n := Notification{
		EventType:     EventStatusChanged,
		OrderID:       o.ID,
		BuyerUserID:   o.UserID,
		SellerUserIDs: sellers,
		Payload: StatusChangedPayload{
			OrderID:        o.ID,
			OrderNumber:    o.OrderNumber,
			PreviousStatus: prev,
			CurrentStatus:  o.Status,
			ActorRole:      actor.Role,
			Reason:         reason,
		},
	}
	if err := t.Notifier.Notify(ctx, n); err != nil {
		t.Log.Warn("status change notification failed",
			zap.String("order_id", o.ID), zap.String("status", string(o.Status)), zap.Error(err))
	}
}
