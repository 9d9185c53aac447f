// Package cart is the narrow cart collaborator: it surfaces a buyer's
// selected lines with live product data and clears them after a
// successful checkout. Cart CRUD itself lives elsewhere.
package cart

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

type Repo struct{ DB *pgxpool.Pool }

// SelectedLines joins selected cart items against the live catalog so
// the checkout prices from current product data, not a cached price.
func (r *Repo) SelectedLines(ctx context.Context, buyerID string) ([]orders.CartLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.product_id, COALESCE(p.store_id, ''), c.quantity,
		       p.price, p.name, COALESCE(p.image_url, '')
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id=$1 AND c.selected`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.CartLine
	for rows.Next() {
		var ln orders.CartLine
		if err := rows.Scan(&ln.ProductID, &ln.StoreID, &ln.Quantity,
			&ln.UnitPrice, &ln.Name, &ln.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func (r *Repo) RemoveSelected(ctx context.Context, buyerID string) error {
	_, err := r.DB.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id=$1 AND selected`, buyerID)
	return err
}
