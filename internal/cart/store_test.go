package cart_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"MiniCart/internal/cart"
	"MiniCart/internal/catalog"
	"MiniCart/internal/hub"
	"MiniCart/internal/kvstore"
)

var (
	keyboard = catalog.Product{ID: "p1", Name: "Keyboard", PriceCents: 10000}
	mouse    = catalog.Product{ID: "p2", Name: "Mouse", PriceCents: 1990}
)

type creatorStub struct {
	calls    int
	items    []cart.LineItem
	total    int64
	customer cart.CustomerInfo
	err      error
}

func (c *creatorStub) Create(_ context.Context, items []cart.LineItem, total int64, customer cart.CustomerInfo) (string, error) {
	c.calls++
	c.items = items
	c.total = total
	c.customer = customer
	if c.err != nil {
		return "", c.err
	}
	return "ORD-test-1", nil
}

type flakyKV struct {
	kvstore.Store
	fail bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

type fixture struct {
	store     *cart.Store
	kv        *flakyKV
	creator   *creatorStub
	stream    *hub.Stream[[]cart.LineItem]
	published int
	latest    []cart.LineItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		kv:      &flakyKV{Store: kvstore.NewMemStore()},
		creator: &creatorStub{},
		stream:  hub.NewStream[[]cart.LineItem](nil),
	}
	f.store = cart.NewStore(f.kv, f.creator, f.stream, zap.NewNop())

	f.stream.Subscribe(func(items []cart.LineItem) {
		f.published++
		f.latest = items
	})
	f.published = 0 // ignore the subscription replay
	return f
}

func TestAdd_AppendsThenIncrements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.Add(ctx, mouse); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add again: %v", err)
	}

	items := f.store.Items()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d", len(items))
	}
	if items[0].Quantity != 2 || items[0].ID != "p1" {
		t.Fatalf("items[0] = %+v", items[0])
	}
	if items[1].Quantity != 1 {
		t.Fatalf("items[1] = %+v", items[1])
	}

	if f.published != 3 {
		t.Fatalf("published = %d, want 3", f.published)
	}
	if len(f.latest) != 2 {
		t.Fatalf("latest snapshot len = %d", len(f.latest))
	}
}

func TestChangeQuantity_CapRejectsAboveFive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.ChangeQuantity(ctx, 0, 4); err != nil {
		t.Fatalf("raise to 5: %v", err)
	}

	before := f.published
	err := f.store.ChangeQuantity(ctx, 0, 1)
	if !errors.Is(err, cart.ErrQuantityCap) {
		t.Fatalf("err = %v, want ErrQuantityCap", err)
	}

	if got := f.store.Items()[0].Quantity; got != 5 {
		t.Fatalf("quantity = %d, want 5", got)
	}
	if f.published != before {
		t.Fatalf("broadcast fired on rejected change")
	}

	var persisted []cart.LineItem
	if _, err := kvstore.GetJSON(ctx, f.kv, "cart", &persisted); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if persisted[0].Quantity != 5 {
		t.Fatalf("persisted quantity = %d, want 5", persisted[0].Quantity)
	}
}

func TestChangeQuantity_ClampsLowToOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := f.store.ChangeQuantity(ctx, 0, -3); err != nil {
		t.Fatalf("change: %v", err)
	}

	items := f.store.Items()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("items = %+v, want one line with quantity 1", items)
	}
}

func TestChangeQuantity_UnknownIndex(t *testing.T) {
	f := newFixture(t)

	err := f.store.ChangeQuantity(context.Background(), 0, 1)
	if !errors.Is(err, cart.ErrNoSuchItem) {
		t.Fatalf("err = %v, want ErrNoSuchItem", err)
	}
}

func TestApplyCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.ChangeQuantity(ctx, 0, 1); err != nil {
		t.Fatalf("change: %v", err)
	}
	// subtotal: 2 x 10000

	d, err := f.store.ApplyCoupon("  save50 ")
	if err != nil || d != 5000 {
		t.Fatalf("SAVE50: d=%d err=%v", d, err)
	}
	if got := f.store.Total(); got != 15000 {
		t.Fatalf("total = %d, want 15000", got)
	}

	d, err = f.store.ApplyCoupon("discount10")
	if err != nil || d != 2000 {
		t.Fatalf("DISCOUNT10: d=%d err=%v", d, err)
	}
	if got := f.store.Total(); got != 18000 {
		t.Fatalf("total = %d, want 18000", got)
	}

	d, err = f.store.ApplyCoupon("BOGUS")
	if !errors.Is(err, cart.ErrInvalidCoupon) {
		t.Fatalf("err = %v, want ErrInvalidCoupon", err)
	}
	if d != 0 || f.store.Discount() != 0 {
		t.Fatalf("discount not reset: d=%d stored=%d", d, f.store.Discount())
	}
	if got := f.store.Total(); got != 20000 {
		t.Fatalf("total after reset = %d, want 20000", got)
	}
}

func TestTotal_FloorsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, mouse); err != nil { // 1990 subtotal
		t.Fatalf("add: %v", err)
	}
	if _, err := f.store.ApplyCoupon("SAVE50"); err != nil {
		t.Fatalf("coupon: %v", err)
	}

	if got := f.store.Total(); got != 0 {
		t.Fatalf("total = %d, want 0", got)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	before := f.published
	_, err := f.store.Checkout(context.Background(), cart.CustomerInfo{Name: "a", Email: "b", Phone: "c"})
	if !errors.Is(err, cart.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if f.creator.calls != 0 {
		t.Fatalf("order created from empty cart")
	}
	if f.published != before {
		t.Fatalf("broadcast fired on failed checkout")
	}
}

func TestCheckout_ValidatesCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, c := range []cart.CustomerInfo{
		{Email: "a@b.c", Phone: "1"},
		{Name: "A", Phone: "1"},
		{Name: "A", Email: "a@b.c"},
		{Name: "  ", Email: "a@b.c", Phone: "1"},
	} {
		_, err := f.store.Checkout(ctx, c)
		var verr *cart.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("customer %+v: err = %v, want ValidationError", c, err)
		}
	}
	if f.creator.calls != 0 {
		t.Fatalf("order created despite validation failure")
	}
}

func TestCheckout_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.ChangeQuantity(ctx, 0, 1); err != nil {
		t.Fatalf("change: %v", err)
	}

	d, err := f.store.ApplyCoupon("discount10")
	if err != nil || d != 2000 {
		t.Fatalf("coupon: d=%d err=%v", d, err)
	}
	if got := f.store.Total(); got != 18000 {
		t.Fatalf("total = %d, want 18000", got)
	}

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add same product: %v", err)
	}
	if got := f.store.Items()[0].Quantity; got != 3 {
		t.Fatalf("quantity = %d, want 3", got)
	}
	if got := f.store.Total(); got != 28000 {
		t.Fatalf("total = %d, want 28000", got)
	}

	id, err := f.store.Checkout(ctx, cart.CustomerInfo{Name: "Asha", Email: "asha@example.com", Phone: "9999999999"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if id != "ORD-test-1" {
		t.Fatalf("id = %q", id)
	}

	if f.creator.calls != 1 || f.creator.total != 28000 {
		t.Fatalf("creator calls=%d total=%d", f.creator.calls, f.creator.total)
	}
	if len(f.creator.items) != 1 || f.creator.items[0].Quantity != 3 {
		t.Fatalf("creator items = %+v", f.creator.items)
	}

	if len(f.store.Items()) != 0 {
		t.Fatalf("cart not cleared")
	}
	if f.store.Discount() != 0 {
		t.Fatalf("discount not reset")
	}
	if len(f.latest) != 0 {
		t.Fatalf("last broadcast not empty: %+v", f.latest)
	}
}

func TestRemove_PersistenceRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.Add(ctx, mouse); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.Remove(ctx, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}

	reloaded := cart.NewStore(f.kv, f.creator, hub.NewStream[[]cart.LineItem](nil), zap.NewNop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	got, want := reloaded.Items(), f.store.Items()
	if len(got) != 1 || len(want) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	if got[0] != want[0] {
		t.Fatalf("reloaded %+v != in-memory %+v", got[0], want[0])
	}
	if got[0].ID != "p2" {
		t.Fatalf("removed item survived: %+v", got)
	}
}

func TestSaveForLater(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.Add(ctx, mouse); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := f.store.SaveForLater(ctx, 0); err != nil {
		t.Fatalf("save: %v", err)
	}

	if items := f.store.Items(); len(items) != 1 || items[0].ID != "p2" {
		t.Fatalf("items = %+v", items)
	}
	saved := f.store.SavedItems()
	if len(saved) != 1 || saved[0].ID != "p1" {
		t.Fatalf("saved = %+v", saved)
	}

	// The saved list is session state only.
	reloaded := cart.NewStore(f.kv, f.creator, hub.NewStream[[]cart.LineItem](nil), zap.NewNop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(reloaded.SavedItems()) != 0 {
		t.Fatalf("saved list leaked into durable store")
	}
}

func TestMutations_AllOrNothingOnPersistFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, keyboard); err != nil {
		t.Fatalf("add: %v", err)
	}

	f.kv.fail = true
	before := f.published

	err := f.store.ChangeQuantity(ctx, 0, 1)
	var perr *kvstore.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if got := f.store.Items()[0].Quantity; got != 1 {
		t.Fatalf("quantity mutated to %d after failed persist", got)
	}
	if f.published != before {
		t.Fatalf("broadcast fired after failed persist")
	}

	if err := f.store.Remove(ctx, 0); err == nil {
		t.Fatalf("remove succeeded with failing store")
	}
	if len(f.store.Items()) != 1 {
		t.Fatalf("remove mutated state after failed persist")
	}

	if err := f.store.SaveForLater(ctx, 0); err == nil {
		t.Fatalf("save succeeded with failing store")
	}
	if len(f.store.SavedItems()) != 0 {
		t.Fatalf("saved list mutated after failed persist")
	}
}
