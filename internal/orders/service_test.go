package orders

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-fulfillment.git/internal/inventory"
)

func newCheckout(store *memStore, c *fakeCart, a *fakeAddress, d *fakeDiscount, n *fakeNotifier) *Service {
	if d == nil {
		d = &fakeDiscount{}
	}
	return &Service{
		Store:    store,
		Builder:  testBuilder(),
		Cart:     c,
		Address:  a,
		Discount: d,
		Notifier: n,
		Log:      zap.NewNop(),
	}
}

func twoStoreCart() *fakeCart {
	return &fakeCart{lines: []CartLine{
		{ProductID: "p1", StoreID: "store-a", Quantity: 2, UnitPrice: dec("100"), Name: "Mug"},
		{ProductID: "p2", StoreID: "store-b", Quantity: 1, UnitPrice: dec("250"), Name: "Pot"},
	}}
}

func TestCreateOrderMultiStore(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5)
	store.addStock("p2", 5)
	store.sellers["store-a"] = "seller-a"
	store.sellers["store-b"] = "seller-b"

	cart := twoStoreCart()
	notifier := &fakeNotifier{}
	svc := newCheckout(store, cart, &fakeAddress{snap: testAddr}, nil, notifier)

	got, err := svc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{
		AddressID: "addr-1", PaymentMethod: "card",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d orders, want 2", len(got))
	}
	if got[0].UserID != "buyer-1" || got[1].UserID != "buyer-1" {
		t.Fatal("orders must share the buyer")
	}
	if got[0].StoreID == got[1].StoreID {
		t.Fatal("orders must have distinct stores")
	}
	if got[0].OrderNumber == got[1].OrderNumber {
		t.Fatal("orders must have distinct order numbers")
	}

	// reservations held, quantity untouched
	if r := store.record("p1"); r.Reserved != 2 || r.Quantity != 5 {
		t.Fatalf("p1 counters: %+v", r)
	}
	if r := store.record("p2"); r.Reserved != 1 || r.Quantity != 5 {
		t.Fatalf("p2 counters: %+v", r)
	}

	if !cart.removed {
		t.Fatal("selected cart items were not cleared")
	}
	if len(notifier.byType(EventOrderCreated)) != 2 {
		t.Fatalf("want one created notification per order, got %d", len(notifier.notes))
	}
}

func TestCreateOrderInsufficientStockAbortsWholeBatch(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5) // store-a: plenty
	store.addStock("p2", 0) // store-b: none
	cart := twoStoreCart()
	notifier := &fakeNotifier{}
	svc := newCheckout(store, cart, &fakeAddress{snap: testAddr}, nil, notifier)

	_, err := svc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{AddressID: "addr-1"})
	var stockErr *inventory.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != "p2" {
		t.Fatalf("error names %s, want p2", stockErr.ProductID)
	}

	// zero orders persisted, including the healthy store's
	all, _ := store.ListAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("partial orders persisted: %d", len(all))
	}
	// and store-a's reservation rolled back with the transaction
	if r := store.record("p1"); r.Reserved != 0 {
		t.Fatalf("p1 reservation leaked: %+v", r)
	}
	if cart.removed {
		t.Fatal("cart cleared despite failed checkout")
	}
	if len(notifier.notes) != 0 {
		t.Fatal("notification sent despite failed checkout")
	}
}

func TestCreateOrderEmptySelection(t *testing.T) {
	store := newMemStore()
	svc := newCheckout(store, &fakeCart{}, &fakeAddress{snap: testAddr}, nil, &fakeNotifier{})
	if _, err := svc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{}); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("want EmptySelection, got %v", err)
	}
}

func TestCreateOrderMissingAddress(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5)
	cart := &fakeCart{lines: []CartLine{{ProductID: "p1", StoreID: "s1", Quantity: 1, UnitPrice: dec("10"), Name: "X"}}}
	svc := newCheckout(store, cart, &fakeAddress{}, nil, &fakeNotifier{})
	if _, err := svc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{}); !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("want MissingAddress, got %v", err)
	}
}

func TestCreateOrderCartCleanupFailureDoesNotFailCheckout(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5)
	cart := &fakeCart{
		lines:     []CartLine{{ProductID: "p1", StoreID: "s1", Quantity: 1, UnitPrice: dec("10"), Name: "X"}},
		removeErr: errors.New("cart service down"),
	}
	svc := newCheckout(store, cart, &fakeAddress{snap: testAddr}, nil, &fakeNotifier{})

	got, err := svc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{})
	if err != nil {
		t.Fatalf("checkout failed on cart cleanup: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d orders, want 1", len(got))
	}
}

func TestCreateOrderNotifierFailureDoesNotFailCheckout(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5)
	cart := &fakeCart{lines: []CartLine{{ProductID: "p1", StoreID: "s1", Quantity: 1, UnitPrice: dec("10"), Name: "X"}}}
	svc := newCheckout(store, cart, &fakeAddress{snap: testAddr}, nil, &fakeNotifier{err: errors.New("broker down")})

	if _, err := svc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{}); err != nil {
		t.Fatalf("checkout failed on notification: %v", err)
	}
}

func TestCreateOrderIdempotencyShortCircuit(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5)
	cart := &fakeCart{lines: []CartLine{{ProductID: "p1", StoreID: "s1", Quantity: 2, UnitPrice: dec("10"), Name: "X"}}}
	svc := newCheckout(store, cart, &fakeAddress{snap: testAddr}, nil, &fakeNotifier{})

	in := CreateOrderInput{IdempotencyKey: "req-1"}
	first, err := svc.CreateOrder(context.Background(), "buyer-1", in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateOrder(context.Background(), "buyer-1", in)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != len(first) || second[0].ID != first[0].ID {
		t.Fatalf("repeat checkout created new orders: %v vs %v", second, first)
	}
	// stock reserved only once
	if r := store.record("p1"); r.Reserved != 2 {
		t.Fatalf("repeat checkout reserved again: %+v", r)
	}
}

func TestCreateOrderAppliesDiscounts(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5)
	cart := &fakeCart{lines: []CartLine{{ProductID: "p1", StoreID: "s1", Quantity: 1, UnitPrice: dec("100"), Name: "X"}}}
	disc := &fakeDiscount{results: map[string]DiscountResult{
		"WELCOME": {Valid: true, Type: "fixed", Amount: dec("30")},
		"DEAD":    {Reason: "code expired"},
	}}
	svc := newCheckout(store, cart, &fakeAddress{snap: testAddr}, disc, &fakeNotifier{})

	got, err := svc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{
		DiscountCodes: []string{"WELCOME", "DEAD"},
	})
	if err != nil {
		t.Fatal(err)
	}
	o := got[0]
	if !o.TotalDiscount.Equal(dec("30")) {
		t.Fatalf("total discount %s, want 30", o.TotalDiscount)
	}
	// 100 + 60 shipping - 30
	if !o.TotalAmount.Equal(dec("130")) {
		t.Fatalf("total %s, want 130", o.TotalAmount)
	}
	if len(o.Discounts) != 1 || o.Discounts[0].DiscountType != "fixed" {
		t.Fatalf("discount rows: %+v", o.Discounts)
	}
}

func TestCreateOrderFromSnapshot(t *testing.T) {
	store := newMemStore()
	store.addStock("p1", 5)
	store.addStock("p2", 5)
	cart := &fakeCart{} // live cart empty: snapshot flow must not consult it
	svc := newCheckout(store, cart, &fakeAddress{}, nil, &fakeNotifier{})

	lines := []CartLine{
		{ProductID: "p1", StoreID: "s1", Quantity: 2, UnitPrice: dec("10"), Name: "A"},
		{ProductID: "p2", StoreID: "s1", Quantity: 3, UnitPrice: dec("7"), Name: "B"},
	}
	got, err := svc.CreateOrderFromSnapshot(context.Background(), "buyer-1", SnapshotOrderInput{
		Lines:   lines,
		Address: testAddr,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d orders, want 1", len(got))
	}
	o := got[0]
	if len(o.Items) != len(lines) {
		t.Fatalf("persisted %d items, want %d", len(o.Items), len(lines))
	}
	sum := dec("0")
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal)
	}
	if !sum.Equal(o.Subtotal) {
		t.Fatalf("item subtotal sum %s != order subtotal %s", sum, o.Subtotal)
	}
	if cart.removed {
		t.Fatal("snapshot flow must not touch the live cart")
	}
}
