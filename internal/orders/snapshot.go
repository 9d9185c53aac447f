package orders

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Builder turns selected cart lines into per-store Order aggregates
// with frozen product and address snapshots. It never persists; the
// checkout service owns the transaction.
type Builder struct {
	Numbers     NumberGenerator
	ShippingFee decimal.Decimal // flat fee per store group
}

// Build groups lines by the product's owning store (lines with no
// resolvable store fall into the StoreIDNone group), computes each
// group's subtotal from the live unit prices, and freezes snapshots.
// Store order is deterministic (sorted by store id).
func (b *Builder) Build(buyerID string, lines []CartLine, addr AddressSnapshot, paymentMethod, notes string) ([]Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptySelection
	}
	if addr.Empty() {
		return nil, ErrMissingAddress
	}

	groups := map[string][]CartLine{}
	for _, ln := range lines {
		sid := ln.StoreID
		if sid == "" {
			sid = StoreIDNone
		}
		groups[sid] = append(groups[sid], ln)
	}
	storeIDs := make([]string, 0, len(groups))
	for sid := range groups {
		storeIDs = append(storeIDs, sid)
	}
	sort.Strings(storeIDs)

	initial := StatusPendingPayment
	if paymentMethod == "cod" {
		// cash on delivery skips the payment step entirely
		initial = StatusPaid
	}

	out := make([]Order, 0, len(storeIDs))
	for _, sid := range storeIDs {
		o := Order{
			OrderNumber:     b.Numbers.Next(),
			UserID:          buyerID,
			StoreID:         sid,
			Status:          initial,
			ShippingFee:     b.ShippingFee,
			TotalDiscount:   decimal.Zero,
			PaymentMethod:   paymentMethod,
			ShippingAddress: addr,
			Notes:           notes,
		}
		subtotal := decimal.Zero
		for _, ln := range groups[sid] {
			lineSubtotal := ln.UnitPrice.Mul(decimal.NewFromInt(ln.Quantity))
			o.Items = append(o.Items, OrderItem{
				ProductID: ln.ProductID,
				Snapshot: ProductSnapshot{
					Name:     ln.Name,
					Price:    ln.UnitPrice,
					ImageURL: ln.ImageURL,
				},
				Quantity:      ln.Quantity,
				OriginalPrice: ln.UnitPrice,
				ItemDiscount:  decimal.Zero,
				UnitPrice:     ln.UnitPrice,
				Subtotal:      lineSubtotal,
			})
			subtotal = subtotal.Add(lineSubtotal)
		}
		o.Subtotal = subtotal
		o.TotalAmount = subtotal.Add(b.ShippingFee)
		out = append(out, o)
	}
	return out, nil
}

// ApplyDiscount records one validated discount on the order and folds
// its amount into the totals. At most one row per discount type; a
// repeat type is ignored. TotalAmount never drops below zero.
func (o *Order) ApplyDiscount(discountType string, amount decimal.Decimal) {
	for _, d := range o.Discounts {
		if d.DiscountType == discountType {
			return
		}
	}
	o.Discounts = append(o.Discounts, OrderDiscount{
		DiscountType: discountType,
		Amount:       amount,
	})
	o.TotalDiscount = o.TotalDiscount.Add(amount)
	o.TotalAmount = o.Subtotal.Add(o.ShippingFee).Sub(o.TotalDiscount)
	if o.TotalAmount.IsNegative() {
		o.TotalAmount = decimal.Zero
	}
}
