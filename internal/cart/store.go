package cart

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"MiniCart/internal/catalog"
	"MiniCart/internal/hub"
	"MiniCart/internal/kvstore"
)

const (
	storageKey  = "cart"
	maxQuantity = 5

	couponFlat50     = "SAVE50"
	couponPercent10  = "DISCOUNT10"
	flatDiscountCent = 50 * 100
)

// OrderCreator is the slice of the order repository the cart needs at
// checkout. Inputs are validated here; creation itself never fails on
// well-formed input.
type OrderCreator interface {
	Create(ctx context.Context, items []LineItem, totalCents int64, customer CustomerInfo) (string, error)
}

// Store owns the active cart. Every mutation takes the same path:
// build the next item slice, persist it, commit it in memory, then
// publish the snapshot. A failed persist leaves the store untouched
// and publishes nothing.
type Store struct {
	mu       sync.Mutex
	items    []LineItem
	saved    []LineItem
	discount int64

	kv     kvstore.Store
	orders OrderCreator
	stream *hub.Stream[[]LineItem]
	log    *zap.Logger
}

func NewStore(kv kvstore.Store, orders OrderCreator, stream *hub.Stream[[]LineItem], log *zap.Logger) *Store {
	return &Store{
		kv:     kv,
		orders: orders,
		stream: stream,
		log:    log,
	}
}

// Load hydrates the cart from the durable store and broadcasts the
// hydrated snapshot. Called once by the composition root.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []LineItem
	ok, err := kvstore.GetJSON(ctx, s.kv, storageKey, &items)
	if err != nil {
		return err
	}
	if ok {
		s.items = items
	}

	s.stream.Publish(snapshot(s.items))
	return nil
}

// Add puts one unit of p into the cart: an existing line for the same
// product id gets its quantity bumped, otherwise a new line with
// quantity 1 is appended. The quantity cap is not enforced here; the
// delta path (ChangeQuantity) owns it.
func (s *Store) Add(ctx context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := snapshot(s.items)
	for i := range items {
		if items[i].ID == p.ID {
			items[i].Quantity++
			return s.commit(ctx, items)
		}
	}

	items = append(items, LineItem{
		ID:         p.ID,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Quantity:   1,
	})
	return s.commit(ctx, items)
}

// ChangeQuantity applies delta to the item at index. A result above 5
// is rejected with ErrQuantityCap and nothing changes; a result below
// 1 clamps to 1. Removal never happens here, only via Remove.
func (s *Store) ChangeQuantity(ctx context.Context, index, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return ErrNoSuchItem
	}

	items := snapshot(s.items)
	q := items[index].Quantity + delta
	if q > maxQuantity {
		return ErrQuantityCap
	}
	if q < 1 {
		q = 1
	}
	items[index].Quantity = q
	return s.commit(ctx, items)
}

func (s *Store) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, index)
}

// SaveForLater moves the item at index out of the cart into the
// session-scoped saved list. The saved list is deliberately not
// written to the durable store.
func (s *Store) SaveForLater(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return ErrNoSuchItem
	}
	moved := s.items[index]

	if err := s.removeLocked(ctx, index); err != nil {
		return err
	}
	s.saved = append(s.saved, moved)
	return nil
}

// ApplyCoupon evaluates code against the fixed rule table and returns
// the resulting discount in cents. An unknown code resets the discount
// to zero and reports ErrInvalidCoupon.
func (s *Store) ApplyCoupon(code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToUpper(strings.TrimSpace(code)) {
	case couponFlat50:
		s.discount = flatDiscountCent
	case couponPercent10:
		s.discount = s.subtotalLocked() / 10
	default:
		s.discount = 0
		return 0, ErrInvalidCoupon
	}
	return s.discount, nil
}

func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

// Total is subtotal minus the active discount, floored at zero so a
// flat coupon larger than the subtotal never produces a negative
// amount.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Store) Discount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discount
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.items)
}

func (s *Store) SavedItems() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.saved)
}

// Checkout turns the cart into an order: it validates, delegates
// creation to the order repository, then clears the cart and returns
// the new order id. The order's item slice is a frozen copy.
func (s *Store) Checkout(ctx context.Context, customer CustomerInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return "", ErrEmptyCart
	}
	if err := customer.validate(); err != nil {
		return "", err
	}

	id, err := s.orders.Create(ctx, snapshot(s.items), s.totalLocked(), customer)
	if err != nil {
		return "", err
	}

	if err := s.clearLocked(ctx); err != nil {
		// The order exists; only the cart wipe failed to persist.
		if s.log != nil {
			s.log.Error("clear cart after checkout failed", zap.Error(err), zap.String("order_id", id))
		}
		return id, err
	}
	return id, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) removeLocked(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.items) {
		return ErrNoSuchItem
	}
	items := snapshot(s.items)
	items = append(items[:index], items[index+1:]...)
	return s.commit(ctx, items)
}

func (s *Store) clearLocked(ctx context.Context) error {
	if err := s.commit(ctx, []LineItem{}); err != nil {
		return err
	}
	s.discount = 0
	return nil
}

func (s *Store) subtotalLocked() int64 {
	var sum int64
	for _, it := range s.items {
		sum += it.PriceCents * int64(it.Quantity)
	}
	return sum
}

func (s *Store) totalLocked() int64 {
	total := s.subtotalLocked() - s.discount
	if total < 0 {
		return 0
	}
	return total
}

// commit persists items, swaps them in and broadcasts, in that order.
// Callers hold s.mu and pass a slice the store now owns.
func (s *Store) commit(ctx context.Context, items []LineItem) error {
	if err := kvstore.SetJSON(ctx, s.kv, storageKey, items); err != nil {
		return err
	}
	s.items = items
	s.stream.Publish(snapshot(items))
	return nil
}
