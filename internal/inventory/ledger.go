// Package inventory owns the per-product quantity/reserved counters.
// Nothing else writes those columns. Reservation is two-phase: Reserve
// holds units against an order, Commit turns the hold into a physical
// decrement when the goods ship, Release drops the hold on
// pre-shipment cancellation. Restock returns already-committed units
// to sellable stock for post-shipment cancellation.
package inventory

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("inventory record not found")

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidStateError reports a counter operation that would violate
// 0 <= reserved <= quantity.
type InvalidStateError struct {
	ProductID string
	Op        string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("inventory %s on product %s would violate counter invariant", e.Op, e.ProductID)
}

// Record is one product's counters. The SQL layer expresses every
// operation below as a single conditional UPDATE carrying the same
// guard, so both forms enforce the same invariant.
type Record struct {
	ProductID   string
	Quantity    int64 // physically available units
	Reserved    int64 // units held against unfulfilled orders
	LastUpdated time.Time
}

// Available is quantity minus reserved; never negative by invariant.
func (r *Record) Available() int64 { return r.Quantity - r.Reserved }

func (r *Record) CanReserve(qty int64) bool {
	return qty > 0 && r.Available() >= qty
}

// Reserve holds qty units without touching on-hand quantity.
func (r *Record) Reserve(qty int64) error {
	if qty <= 0 {
		return &InvalidStateError{ProductID: r.ProductID, Op: "reserve"}
	}
	if r.Available() < qty {
		return &InsufficientStockError{ProductID: r.ProductID, Requested: qty, Available: r.Available()}
	}
	r.Reserved += qty
	return nil
}

// Release drops a hold taken by Reserve.
func (r *Record) Release(qty int64) error {
	if qty <= 0 || r.Reserved < qty {
		return &InvalidStateError{ProductID: r.ProductID, Op: "release"}
	}
	r.Reserved -= qty
	return nil
}

// Commit converts a hold into a permanent stock decrement (shipment).
func (r *Record) Commit(qty int64) error {
	if qty <= 0 || r.Reserved < qty {
		return &InvalidStateError{ProductID: r.ProductID, Op: "commit"}
	}
	if r.Quantity-qty < 0 {
		// unreachable while reserved <= quantity holds; kept as a guard
		return &InvalidStateError{ProductID: r.ProductID, Op: "commit"}
	}
	r.Quantity -= qty
	r.Reserved -= qty
	return nil
}

// Restock returns committed units to sellable stock. Used when an
// order is cancelled after shipment; it never touches reserved.
func (r *Record) Restock(qty int64) error {
	if qty <= 0 {
		return &InvalidStateError{ProductID: r.ProductID, Op: "restock"}
	}
	r.Quantity += qty
	return nil
}

// SetQuantity is a direct stock-count correction. The count may not
// drop below what is already reserved.
func (r *Record) SetQuantity(newQty int64) error {
	if newQty < 0 || newQty < r.Reserved {
		return &InvalidStateError{ProductID: r.ProductID, Op: "set_quantity"}
	}
	r.Quantity = newQty
	return nil
}
