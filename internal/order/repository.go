package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MiniCart/internal/cart"
	"MiniCart/internal/hub"
	"MiniCart/internal/kvstore"
)

const storageKey = "orders"

var ErrOrderNotFound = errors.New("order not found")

// Repository owns the append-only order collection. Orders are never
// deleted; the only mutation after creation is a status replacement.
type Repository struct {
	mu      sync.Mutex
	orders  []Order
	current string

	kv     kvstore.Store
	stream *hub.Stream[[]Order]
	log    *zap.Logger
}

func NewRepository(kv kvstore.Store, stream *hub.Stream[[]Order], log *zap.Logger) *Repository {
	return &Repository{
		kv:     kv,
		stream: stream,
		log:    log,
	}
}

func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []Order
	ok, err := kvstore.GetJSON(ctx, r.kv, storageKey, &orders)
	if err != nil {
		return err
	}
	if ok {
		r.orders = orders
	}

	r.stream.Publish(copyOrders(r.orders))
	return nil
}

// Create appends a new pending order with a fresh unique id, marks it
// as the current order and broadcasts the updated collection. It
// returns the new order's id.
func (r *Repository) Create(ctx context.Context, items []cart.LineItem, totalCents int64, customer cart.CustomerInfo) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := Order{
		ID:         newOrderID(),
		Items:      append([]cart.LineItem(nil), items...),
		TotalCents: totalCents,
		Customer:   customer,
		CreatedAt:  time.Now().UTC(),
		Status:     StatusPending,
	}

	next := append(copyOrders(r.orders), o)
	if err := r.commit(ctx, next); err != nil {
		return "", err
	}
	r.current = o.ID

	if r.log != nil {
		r.log.Info("order created",
			zap.String("order_id", o.ID),
			zap.Int64("total_cents", o.TotalCents),
			zap.Int("items", len(o.Items)),
		)
	}
	return o.ID, nil
}

func (r *Repository) Get(id string) (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		if o.ID == id {
			return copyOrder(o), true
		}
	}
	return Order{}, false
}

func (r *Repository) Orders() []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyOrders(r.orders)
}

// UpdateStatus replaces the status of the matching order and nothing
// else. Any status may follow any other; the repository keeps no
// transition table.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := copyOrders(r.orders)
	for i := range next {
		if next[i].ID == id {
			next[i].Status = status
			return r.commit(ctx, next)
		}
	}
	return ErrOrderNotFound
}

// Current reports the most recently created order, if any.
func (r *Repository) Current() (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == "" {
		return Order{}, false
	}
	for _, o := range r.orders {
		if o.ID == r.current {
			return copyOrder(o), true
		}
	}
	return Order{}, false
}

func (r *Repository) ClearCurrent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = ""
}

func (r *Repository) commit(ctx context.Context, orders []Order) error {
	if err := kvstore.SetJSON(ctx, r.kv, storageKey, orders); err != nil {
		return err
	}
	r.orders = orders
	r.stream.Publish(copyOrders(orders))
	return nil
}

// newOrderID concatenates a millisecond timestamp with a random uuid,
// so ids stay unique even for many creations within the same instant.
func newOrderID() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), uuid.NewString())
}

func copyOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = copyOrder(o)
	}
	return out
}

func copyOrder(o Order) Order {
	o.Items = append([]cart.LineItem(nil), o.Items...)
	return o
}
