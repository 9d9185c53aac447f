package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/inventory"
)

// PGStore is the pgx-backed Store. All writes go through WithinTx;
// reads run directly on the pool.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgUnitOfWork{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgUnitOfWork struct{ tx pgx.Tx }

func (u *pgUnitOfWork) ReserveStock(ctx context.Context, productID string, qty int64) error {
	return inventory.Reserve(ctx, u.tx, productID, qty)
}

func (u *pgUnitOfWork) ReleaseReserved(ctx context.Context, productID string, qty int64) error {
	return inventory.Release(ctx, u.tx, productID, qty)
}

func (u *pgUnitOfWork) CommitReserved(ctx context.Context, productID string, qty int64) error {
	return inventory.Commit(ctx, u.tx, productID, qty)
}

func (u *pgUnitOfWork) Restock(ctx context.Context, productID string, qty int64) error {
	return inventory.Restock(ctx, u.tx, productID, qty)
}

func (u *pgUnitOfWork) InsertOrder(ctx context.Context, o *Order) error {
	o.ID = uuid.NewString()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}

	var idemKey *string
	if o.IdempotencyKey != "" {
		idemKey = &o.IdempotencyKey
	}

	_, err = u.tx.Exec(ctx, `
		INSERT INTO orders(
			id, order_number, user_id, store_id, status,
			subtotal, shipping_fee, total_discount, total_amount,
			payment_method, shipping_address, notes, idempotency_key,
			paid_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.OrderNumber, o.UserID, o.StoreID, string(o.Status),
		o.Subtotal, o.ShippingFee, o.TotalDiscount, o.TotalAmount,
		o.PaymentMethod, addr, o.Notes, idemKey,
		paidAtForInitial(o.Status, now), now, now,
	)
	if err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.ID = uuid.NewString()
		it.OrderID = o.ID
		snap, err := json.Marshal(it.Snapshot)
		if err != nil {
			return err
		}
		if _, err := u.tx.Exec(ctx, `
			INSERT INTO order_items(
				id, order_id, product_id, product_snapshot,
				quantity, original_price, item_discount, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, it.OrderID, it.ProductID, snap,
			it.Quantity, it.OriginalPrice, it.ItemDiscount, it.UnitPrice, it.Subtotal,
		); err != nil {
			return err
		}
	}

	for i := range o.Discounts {
		d := &o.Discounts[i]
		d.OrderID = o.ID
		if _, err := u.tx.Exec(ctx, `
			INSERT INTO order_discounts(order_id, discount_type, amount)
			VALUES ($1,$2,$3)`,
			d.OrderID, d.DiscountType, d.Amount,
		); err != nil {
			return err
		}
	}
	if o.Status == StatusPaid {
		o.PaidAt = &now
	}
	return nil
}

// cod orders are born PAID; stamp paid_at at creation for them.
func paidAtForInitial(s Status, now time.Time) *time.Time {
	if s == StatusPaid {
		return &now
	}
	return nil
}

func (u *pgUnitOfWork) GetOrderForUpdate(ctx context.Context, orderID string) (*Order, error) {
	row := u.tx.QueryRow(ctx, selectOrder+` WHERE o.id=$1 FOR UPDATE OF o`, orderID)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, u.tx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

var statusTimestampCols = map[Status]string{
	StatusPaid:      "paid_at",
	StatusShipped:   "shipped_at",
	StatusDelivered: "delivered_at",
	StatusCompleted: "completed_at",
	StatusCancelled: "cancelled_at",
}

func (u *pgUnitOfWork) SetStatus(ctx context.Context, orderID string, next Status, at time.Time) error {
	var ct int64
	if col, ok := statusTimestampCols[next]; ok {
		// COALESCE keeps an already-set timestamp; it is never cleared
		tag, err := u.tx.Exec(ctx, fmt.Sprintf(
			`UPDATE orders SET status=$2, updated_at=$3, %s = COALESCE(%s, $3) WHERE id=$1`, col, col),
			orderID, string(next), at)
		if err != nil {
			return err
		}
		ct = tag.RowsAffected()
	} else {
		tag, err := u.tx.Exec(ctx,
			`UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
			orderID, string(next), at)
		if err != nil {
			return err
		}
		ct = tag.RowsAffected()
	}
	if ct != 1 {
		return ErrNotFound
	}
	return nil
}

// querier covers both the pool and an open transaction for reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectOrder = `
	SELECT o.id, o.order_number, o.user_id, o.store_id, o.status,
	       o.subtotal, o.shipping_fee, o.total_discount, o.total_amount,
	       o.payment_method, o.shipping_address, o.notes, o.idempotency_key,
	       o.paid_at, o.shipped_at, o.delivered_at, o.completed_at, o.cancelled_at,
	       o.created_at, o.updated_at
	FROM orders o`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	var addr []byte
	var idemKey *string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.StoreID, &status,
		&o.Subtotal, &o.ShippingFee, &o.TotalDiscount, &o.TotalAmount,
		&o.PaymentMethod, &addr, &o.Notes, &idemKey,
		&o.PaidAt, &o.ShippedAt, &o.DeliveredAt, &o.CompletedAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if idemKey != nil {
		o.IdempotencyKey = *idemKey
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func queryOrders(ctx context.Context, q querier, where string, args ...any) ([]Order, error) {
	rows, err := q.Query(ctx, selectOrder+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*Order, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := attachItems(ctx, q, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func attachItems(ctx context.Context, q querier, os []*Order) error {
	if len(os) == 0 {
		return nil
	}
	ids := make([]string, 0, len(os))
	byID := map[string]*Order{}
	for _, o := range os {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, product_snapshot,
		       quantity, original_price, item_discount, unit_price, subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		var snap []byte
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &snap,
			&it.Quantity, &it.OriginalPrice, &it.ItemDiscount, &it.UnitPrice, &it.Subtotal); err != nil {
			return err
		}
		if len(snap) > 0 {
			if err := json.Unmarshal(snap, &it.Snapshot); err != nil {
				return err
			}
		}
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	drows, err := q.Query(ctx, `
		SELECT order_id, discount_type, amount
		FROM order_discounts WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer drows.Close()
	for drows.Next() {
		var d OrderDiscount
		if err := drows.Scan(&d.OrderID, &d.DiscountType, &d.Amount); err != nil {
			return err
		}
		if o := byID[d.OrderID]; o != nil {
			o.Discounts = append(o.Discounts, d)
		}
	}
	return drows.Err()
}

func (s *PGStore) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	row := s.DB.QueryRow(ctx, selectOrder+` WHERE o.id=$1`, orderID)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, s.DB, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	return queryOrders(ctx, s.DB, ` WHERE o.user_id=$1 ORDER BY o.created_at DESC`, buyerID)
}

func (s *PGStore) ListByStore(ctx context.Context, storeID string) ([]Order, error) {
	return queryOrders(ctx, s.DB, ` WHERE o.store_id=$1 ORDER BY o.created_at DESC`, storeID)
}

func (s *PGStore) ListAll(ctx context.Context) ([]Order, error) {
	return queryOrders(ctx, s.DB, ` ORDER BY o.created_at DESC`)
}

func (s *PGStore) FindByIdempotencyKey(ctx context.Context, buyerID, key string) ([]Order, error) {
	return queryOrders(ctx, s.DB,
		` WHERE o.user_id=$1 AND o.idempotency_key=$2 ORDER BY o.created_at`, buyerID, key)
}

// SellerIDForOrder resolves the owning seller in one lookup via the
// order's store; no traversal through products at call time.
func (s *PGStore) SellerIDForOrder(ctx context.Context, orderID string) (string, error) {
	var sellerID string
	err := s.DB.QueryRow(ctx, `
		SELECT st.seller_user_id
		FROM orders o JOIN stores st ON st.id = o.store_id
		WHERE o.id=$1`, orderID).Scan(&sellerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return sellerID, err
}

func (s *PGStore) StoreIDForSeller(ctx context.Context, sellerUserID string) (string, error) {
	var storeID string
	err := s.DB.QueryRow(ctx, `SELECT id FROM stores WHERE seller_user_id=$1`, sellerUserID).Scan(&storeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return storeID, err
}
