package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UnitOfWork is one request-scoped database transaction. Every method
// applies to the same transaction; any returned error aborts the
// whole unit and nothing it did survives.
type UnitOfWork interface {
	// Inventory side effects. The ledger exclusively owns the
	// quantity/reserved columns; these delegate to it with the
	// transaction's querier.
	ReserveStock(ctx context.Context, productID string, qty int64) error
	ReleaseReserved(ctx context.Context, productID string, qty int64) error
	CommitReserved(ctx context.Context, productID string, qty int64) error
	Restock(ctx context.Context, productID string, qty int64) error

	// InsertOrder persists the order, its items and its discount rows
	// and fills in generated ids and created_at.
	InsertOrder(ctx context.Context, o *Order) error

	// GetOrderForUpdate reads the order with its items under a row
	// lock, so concurrent transitions on the same order serialize.
	GetOrderForUpdate(ctx context.Context, orderID string) (*Order, error)

	// SetStatus applies the new status and stamps the matching
	// timestamp column, exactly once.
	SetStatus(ctx context.Context, orderID string, next Status, at time.Time) error
}

// Store is the persistence boundary of the fulfillment core.
type Store interface {
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	ListByStore(ctx context.Context, storeID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)

	// FindByIdempotencyKey returns the orders a previous checkout with
	// this key created, oldest first. Empty slice when none.
	FindByIdempotencyKey(ctx context.Context, buyerID, key string) ([]Order, error)

	// SellerIDForOrder resolves the owning seller's user id in one
	// lookup; no entity-graph traversal at call time.
	SellerIDForOrder(ctx context.Context, orderID string) (string, error)

	// StoreIDForSeller maps a seller user id to their store.
	StoreIDForSeller(ctx context.Context, sellerUserID string) (string, error)
}

// Narrow collaborator contracts. Authentication, catalog CRUD and
// delivery transports live behind these; the core never reaches past
// them.

type CartCollaborator interface {
	SelectedLines(ctx context.Context, buyerID string) ([]CartLine, error)
	RemoveSelected(ctx context.Context, buyerID string) error
}

type AddressCollaborator interface {
	Resolve(ctx context.Context, addressID, buyerID string) (AddressSnapshot, error)
}

type DiscountResult struct {
	Valid  bool
	Type   string
	Amount decimal.Decimal
	Reason string
}

type DiscountCollaborator interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (DiscountResult, error)
}
