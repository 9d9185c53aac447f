package httpx

import (
	"time"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/orders"
)

type orderView struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	UserID          string                 `json:"user_id"`
	StoreID         string                 `json:"store_id"`
	Status          orders.Status          `json:"status"`
	Subtotal        string                 `json:"subtotal"`
	ShippingFee     string                 `json:"shipping_fee"`
	TotalDiscount   string                 `json:"total_discount"`
	TotalAmount     string                 `json:"total_amount"`
	PaymentMethod   string                 `json:"payment_method"`
	ShippingAddress orders.AddressSnapshot `json:"shipping_address"`
	Notes           string                 `json:"notes,omitempty"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	ShippedAt       *time.Time             `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Items           []orderItemView        `json:"items"`
	Discounts       []discountView         `json:"discounts,omitempty"`
}

type orderItemView struct {
	ID            string                 `json:"id"`
	ProductID     string                 `json:"product_id,omitempty"`
	Snapshot      orders.ProductSnapshot `json:"product_snapshot"`
	Quantity      int64                  `json:"quantity"`
	OriginalPrice string                 `json:"original_price"`
	ItemDiscount  string                 `json:"item_discount"`
	UnitPrice     string                 `json:"unit_price"`
	Subtotal      string                 `json:"subtotal"`
}

type discountView struct {
	DiscountType string `json:"discount_type"`
	Amount       string `json:"amount"`
}

func viewOrder(o orders.Order) orderView {
	v := orderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		StoreID:         o.StoreID,
		Status:          o.Status,
		Subtotal:        o.Subtotal.String(),
		ShippingFee:     o.ShippingFee.String(),
		TotalDiscount:   o.TotalDiscount.String(),
		TotalAmount:     o.TotalAmount.String(),
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CompletedAt:     o.CompletedAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Snapshot:      it.Snapshot,
			Quantity:      it.Quantity,
			OriginalPrice: it.OriginalPrice.String(),
			ItemDiscount:  it.ItemDiscount.String(),
			UnitPrice:     it.UnitPrice.String(),
			Subtotal:      it.Subtotal.String(),
		})
	}
	for _, d := range o.Discounts {
		v.Discounts = append(v.Discounts, discountView{DiscountType: d.DiscountType, Amount: d.Amount.String()})
	}
	return v
}

func viewOrders(os []orders.Order) []orderView {
	out := make([]orderView, 0, len(os))
	for _, o := range os {
		out = append(out, viewOrder(o))
	}
	return out
}
