package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// PersistenceError marks a durable-store write or read failure so
// callers can tell it apart from validation outcomes.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %q: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Key: key, Err: err}
	}
	if err := s.Set(ctx, key, b); err != nil {
		return &PersistenceError{Key: key, Err: err}
	}
	return nil
}

func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, &PersistenceError{Key: key, Err: err}
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, &PersistenceError{Key: key, Err: err}
	}
	return true, nil
}
