// Package discount validates discount codes against an order amount.
// Fixed-amount and percentage codes are supported, with minimum spend
// and expiry. The checkout folds the validated amount into the order
// totals; this package never writes order rows.
package discount

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (orders.DiscountResult, error) {
	var (
		discountType string
		amount       decimal.Decimal
		percent      decimal.Decimal
		minSpend     decimal.Decimal
		active       bool
		expiresAt    *time.Time
	)
	err := r.DB.QueryRow(ctx, `
		SELECT discount_type, amount, percent, min_spend, active, expires_at
		FROM discounts WHERE code=$1`, code).
		Scan(&discountType, &amount, &percent, &minSpend, &active, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.DiscountResult{Reason: "unknown code"}, nil
	}
	if err != nil {
		return orders.DiscountResult{}, err
	}

	switch {
	case !active:
		return orders.DiscountResult{Reason: "code inactive"}, nil
	case expiresAt != nil && expiresAt.Before(time.Now()):
		return orders.DiscountResult{Reason: "code expired"}, nil
	case orderAmount.LessThan(minSpend):
		return orders.DiscountResult{Reason: "below minimum spend"}, nil
	}

	value := amount
	if percent.IsPositive() {
		value = orderAmount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	}
	if value.GreaterThan(orderAmount) {
		value = orderAmount
	}
	return orders.DiscountResult{Valid: true, Type: discountType, Amount: value}, nil
}
