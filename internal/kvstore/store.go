package kvstore

import "context"

// Store is the durable key-value layer the cart and order state
// round-trips through. Values are JSON blobs; keys are well-known
// strings owned by the callers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}
