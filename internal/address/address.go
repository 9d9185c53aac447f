// Package address resolves a buyer's stored shipping address into the
// immutable snapshot frozen onto orders.
package address

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

type Repo struct{ DB *pgxpool.Pool }

// Resolve fails with MissingAddress when the address does not exist or
// belongs to another buyer.
func (r *Repo) Resolve(ctx context.Context, addressID, buyerID string) (orders.AddressSnapshot, error) {
	var a orders.AddressSnapshot
	err := r.DB.QueryRow(ctx, `
		SELECT recipient, phone, line1, COALESCE(line2, ''), city, postal_code, country
		FROM addresses WHERE id=$1 AND user_id=$2`, addressID, buyerID).
		Scan(&a.Recipient, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.PostalCode, &a.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.AddressSnapshot{}, orders.ErrMissingAddress
	}
	if err != nil {
		return orders.AddressSnapshot{}, err
	}
	return a, nil
}
