package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreIDNone groups cart lines whose product has no resolvable store.
const StoreIDNone = "-"

type Order struct {
	ID          string
	OrderNumber string
	UserID      string
	StoreID     string
	Status      Status

	Subtotal      decimal.Decimal
	ShippingFee   decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalAmount   decimal.Decimal // subtotal + shippingFee - totalDiscount, floored at zero

	PaymentMethod   string
	ShippingAddress AddressSnapshot
	Notes           string
	IdempotencyKey  string

	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Items     []OrderItem
	Discounts []OrderDiscount
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string // kept as plain string; historical rows survive product deletion

	Snapshot      ProductSnapshot
	Quantity      int64
	OriginalPrice decimal.Decimal
	ItemDiscount  decimal.Decimal
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal // unitPrice * quantity
}

type OrderDiscount struct {
	OrderID      string
	DiscountType string
	Amount       decimal.Decimal
}

// ProductSnapshot freezes display data at order time so later catalog
// edits never retroactively alter historical orders.
type ProductSnapshot struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
}

// AddressSnapshot freezes the shipping address at order time.
type AddressSnapshot struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a AddressSnapshot) Empty() bool {
	return a.Recipient == "" && a.Line1 == "" && a.City == ""
}

// CartLine is one selected cart item carrying live product data, as
// returned by the cart collaborator (or replayed from a saved
// snapshot for buy-again flows).
type CartLine struct {
	ProductID string
	StoreID   string
	Quantity  int64
	UnitPrice decimal.Decimal // live price at order time
	Name      string
	ImageURL  string
}

// Actor identifies who is driving a status transition.
type Actor struct {
	UserID string
	Role   Role
}
