// Package admin keeps the administrative view in step with the
// storefront: it mirrors hub publications into the durable store under
// well-known keys and serves the dashboard behind token auth.
package admin

import (
	"context"

	"go.uber.org/zap"

	"MiniCart/internal/cart"
	"MiniCart/internal/hub"
	"MiniCart/internal/kvstore"
	"MiniCart/internal/order"
)

// Well-known durable keys shared with the standalone admin process.
const (
	KeyOrderID  = "adminOrderId"
	KeyProducts = "adminProducts"
)

// Sync subscribes to the product and order streams. Product snapshots
// are mirrored under the adminProducts key so a separate admin process
// can pick them up; the latest of both streams is also kept in memory
// for the in-process dashboard.
type Sync struct {
	kv   kvstore.Store
	log  *zap.Logger
	open func(orderID string)

	products     *hub.Stream[[]cart.LineItem]
	orders       *hub.Stream[[]order.Order]
	unsubscribes []func()
}

// NewSync wires the subscriptions. open, if non-nil, is the
// open-dashboard signal fired on checkout hand-off.
func NewSync(kv kvstore.Store, products *hub.Stream[[]cart.LineItem], orders *hub.Stream[[]order.Order], open func(orderID string), log *zap.Logger) *Sync {
	s := &Sync{
		kv:       kv,
		log:      log,
		open:     open,
		products: products,
		orders:   orders,
	}

	pSub := products.Subscribe(func(items []cart.LineItem) {
		if err := kvstore.SetJSON(context.Background(), kv, KeyProducts, items); err != nil && log != nil {
			log.Warn("mirror products for admin failed", zap.Error(err))
		}
	})
	oSub := orders.Subscribe(func(orders []order.Order) {
		if log != nil {
			log.Debug("order collection republished", zap.Int("orders", len(orders)))
		}
	})

	s.unsubscribes = append(s.unsubscribes, pSub.Unsubscribe, oSub.Unsubscribe)
	return s
}

// HandOff records the freshly checked-out order id under the
// adminOrderId key, then fires the open-dashboard signal.
func (s *Sync) HandOff(ctx context.Context, orderID string) error {
	if err := kvstore.SetJSON(ctx, s.kv, KeyOrderID, orderID); err != nil {
		return err
	}
	if s.open != nil {
		s.open(orderID)
	}
	return nil
}

// HandedOffOrderID reads back the adminOrderId key.
func (s *Sync) HandedOffOrderID(ctx context.Context) (string, error) {
	var id string
	if _, err := kvstore.GetJSON(ctx, s.kv, KeyOrderID, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Sync) Products() []cart.LineItem { return s.products.Latest() }

func (s *Sync) Orders() []order.Order { return s.orders.Latest() }

func (s *Sync) Close() {
	for _, u := range s.unsubscribes {
		u()
	}
	s.unsubscribes = nil
}
