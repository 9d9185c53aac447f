package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/inventory"
)

// memStore is an in-memory Store with real transaction semantics:
// WithinTx runs the unit of work against deep copies and swaps them in
// only on success, so a failed unit leaves no trace (including
// reservations already applied within it).
type memStore struct {
	mu      sync.Mutex
	seq     int
	orders  map[string]*Order
	inv     map[string]*inventory.Record
	sellers map[string]string // store id -> seller user id
}

func newMemStore() *memStore {
	return &memStore{
		orders:  map[string]*Order{},
		inv:     map[string]*inventory.Record{},
		sellers: map[string]string{},
	}
}

func (s *memStore) addStock(productID string, qty int64) {
	s.inv[productID] = &inventory.Record{ProductID: productID, Quantity: qty}
}

func copyOrder(o *Order) *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.Discounts = append([]OrderDiscount(nil), o.Discounts...)
	return &c
}

func (s *memStore) WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scratch := &memUOW{
		store:  s,
		orders: map[string]*Order{},
		inv:    map[string]*inventory.Record{},
	}
	for id, o := range s.orders {
		scratch.orders[id] = copyOrder(o)
	}
	for id, r := range s.inv {
		c := *r
		scratch.inv[id] = &c
	}

	if err := fn(scratch); err != nil {
		return err // rollback: scratch discarded
	}
	s.orders = scratch.orders
	s.inv = scratch.inv
	return nil
}

type memUOW struct {
	store  *memStore
	orders map[string]*Order
	inv    map[string]*inventory.Record
}

func (u *memUOW) rec(productID string) (*inventory.Record, error) {
	r, ok := u.inv[productID]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	return r, nil
}

func (u *memUOW) ReserveStock(ctx context.Context, productID string, qty int64) error {
	r, err := u.rec(productID)
	if err != nil {
		return err
	}
	return r.Reserve(qty)
}

func (u *memUOW) ReleaseReserved(ctx context.Context, productID string, qty int64) error {
	r, err := u.rec(productID)
	if err != nil {
		return err
	}
	return r.Release(qty)
}

func (u *memUOW) CommitReserved(ctx context.Context, productID string, qty int64) error {
	r, err := u.rec(productID)
	if err != nil {
		return err
	}
	return r.Commit(qty)
}

func (u *memUOW) Restock(ctx context.Context, productID string, qty int64) error {
	r, err := u.rec(productID)
	if err != nil {
		return err
	}
	return r.Restock(qty)
}

func (u *memUOW) InsertOrder(ctx context.Context, o *Order) error {
	u.store.seq++
	o.ID = fmt.Sprintf("order-%d", u.store.seq)
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == StatusPaid {
		o.PaidAt = &now
	}
	for i := range o.Items {
		o.Items[i].ID = fmt.Sprintf("%s-item-%d", o.ID, i)
		o.Items[i].OrderID = o.ID
	}
	for i := range o.Discounts {
		o.Discounts[i].OrderID = o.ID
	}
	u.orders[o.ID] = copyOrder(o)
	return nil
}

func (u *memUOW) GetOrderForUpdate(ctx context.Context, orderID string) (*Order, error) {
	o, ok := u.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (u *memUOW) SetStatus(ctx context.Context, orderID string, next Status, at time.Time) error {
	o, ok := u.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = next
	stamp(o, next, at)
	return nil
}

func (s *memStore) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *memStore) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == buyerID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (s *memStore) ListByStore(ctx context.Context, storeID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.StoreID == storeID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (s *memStore) ListAll(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		out = append(out, *copyOrder(o))
	}
	return out, nil
}

func (s *memStore) FindByIdempotencyKey(ctx context.Context, buyerID, key string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == buyerID && o.IdempotencyKey == key {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (s *memStore) SellerIDForOrder(ctx context.Context, orderID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return "", ErrNotFound
	}
	seller, ok := s.sellers[o.StoreID]
	if !ok {
		return "", ErrNotFound
	}
	return seller, nil
}

func (s *memStore) StoreIDForSeller(ctx context.Context, sellerUserID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for storeID, seller := range s.sellers {
		if seller == sellerUserID {
			return storeID, nil
		}
	}
	return "", ErrNotFound
}

func (s *memStore) record(productID string) inventory.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.inv[productID]
}

// collaborator fakes

type fakeCart struct {
	lines     []CartLine
	removeErr error
	removed   bool
}

func (c *fakeCart) SelectedLines(ctx context.Context, buyerID string) ([]CartLine, error) {
	return c.lines, nil
}

func (c *fakeCart) RemoveSelected(ctx context.Context, buyerID string) error {
	if c.removeErr != nil {
		return c.removeErr
	}
	c.removed = true
	return nil
}

type fakeAddress struct{ snap AddressSnapshot }

func (a *fakeAddress) Resolve(ctx context.Context, addressID, buyerID string) (AddressSnapshot, error) {
	if a.snap.Empty() {
		return AddressSnapshot{}, ErrMissingAddress
	}
	return a.snap, nil
}

type fakeDiscount struct{ results map[string]DiscountResult }

func (d *fakeDiscount) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (DiscountResult, error) {
	res, ok := d.results[code]
	if !ok {
		return DiscountResult{Reason: "unknown code"}, nil
	}
	return res, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []Notification
	err   error
}

func (n *fakeNotifier) Notify(ctx context.Context, note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notes = append(n.notes, note)
	return nil
}

func (n *fakeNotifier) byType(eventType string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, note := range n.notes {
		if note.EventType == eventType {
			out = append(out, note)
		}
	}
	return out
}
