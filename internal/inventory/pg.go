package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so every ledger
// operation can run standalone or inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Get reads one record.
func Get(ctx context.Context, q Querier, productID string) (*Record, error) {
	var rec Record
	err := q.QueryRow(ctx,
		`SELECT product_id, quantity, reserved, updated_at FROM inventory WHERE product_id=$1`,
		productID).Scan(&rec.ProductID, &rec.Quantity, &rec.Reserved, &rec.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AvailableStock returns quantity - reserved.
func AvailableStock(ctx context.Context, q Querier, productID string) (int64, error) {
	rec, err := Get(ctx, q, productID)
	if err != nil {
		return 0, err
	}
	return rec.Available(), nil
}

// CheckAvailability is a pure read; it holds nothing.
func CheckAvailability(ctx context.Context, q Querier, productID string, qty int64) (bool, error) {
	rec, err := Get(ctx, q, productID)
	if err != nil {
		return false, err
	}
	return rec.CanReserve(qty), nil
}

// EnsureRecord creates the zero row for a new product.
func EnsureRecord(ctx context.Context, q Querier, productID string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO inventory(product_id, quantity, reserved)
		VALUES ($1, 0, 0)
		ON CONFLICT (product_id) DO NOTHING`, productID)
	return err
}

// Reserve holds qty units. The guard rides in the UPDATE itself so
// concurrent reservations serialize through the row lock; no
// application-level mutex.
func Reserve(ctx context.Context, q Querier, productID string, qty int64) error {
	if qty <= 0 {
		return &InvalidStateError{ProductID: productID, Op: "reserve"}
	}
	ct, err := q.Exec(ctx, `
		UPDATE inventory SET reserved = reserved + $2, updated_at = now()
		WHERE product_id = $1 AND quantity - reserved >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	rec, err := Get(ctx, q, productID)
	if err != nil {
		return err
	}
	return &InsufficientStockError{ProductID: productID, Requested: qty, Available: rec.Available()}
}

// Release drops a hold taken by Reserve.
func Release(ctx context.Context, q Querier, productID string, qty int64) error {
	if qty <= 0 {
		return &InvalidStateError{ProductID: productID, Op: "release"}
	}
	ct, err := q.Exec(ctx, `
		UPDATE inventory SET reserved = reserved - $2, updated_at = now()
		WHERE product_id = $1 AND reserved >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	if _, err := Get(ctx, q, productID); err != nil {
		return err
	}
	return &InvalidStateError{ProductID: productID, Op: "release"}
}

// Commit converts a hold into a permanent decrement (shipment).
func Commit(ctx context.Context, q Querier, productID string, qty int64) error {
	if qty <= 0 {
		return &InvalidStateError{ProductID: productID, Op: "commit"}
	}
	ct, err := q.Exec(ctx, `
		UPDATE inventory SET quantity = quantity - $2, reserved = reserved - $2, updated_at = now()
		WHERE product_id = $1 AND reserved >= $2 AND quantity >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	if _, err := Get(ctx, q, productID); err != nil {
		return err
	}
	return &InvalidStateError{ProductID: productID, Op: "commit"}
}

// Restock returns committed units to sellable stock (cancel after shipment).
func Restock(ctx context.Context, q Querier, productID string, qty int64) error {
	if qty <= 0 {
		return &InvalidStateError{ProductID: productID, Op: "restock"}
	}
	ct, err := q.Exec(ctx, `
		UPDATE inventory SET quantity = quantity + $2, updated_at = now()
		WHERE product_id = $1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// SetQuantity is a direct seller/admin stock-count correction; it
// never touches reserved and rejects counts below the reserved hold.
func SetQuantity(ctx context.Context, q Querier, productID string, newQty int64) error {
	if newQty < 0 {
		return &InvalidStateError{ProductID: productID, Op: "set_quantity"}
	}
	ct, err := q.Exec(ctx, `
		UPDATE inventory SET quantity = $2, updated_at = now()
		WHERE product_id = $1 AND reserved <= $2`, productID, newQty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	if _, err := Get(ctx, q, productID); err != nil {
		return err
	}
	return &InvalidStateError{ProductID: productID, Op: "set_quantity"}
}
