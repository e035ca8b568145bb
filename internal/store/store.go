// Package store provides a small document store: JSON values addressed by
// collection and key, with last-write-wins semantics and no transactions.
// The in-memory backend serves tests and single-node development; the Redis
// backend is the production persistence layer.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no document exists under collection/key.
var ErrNotFound = errors.New("document not found")

// Documents is the contract every backend must satisfy. Set with a zero TTL
// persists the document indefinitely.
type Documents interface {
	Get(ctx context.Context, collection, key string, v any) error
	Set(ctx context.Context, collection, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, collection, key string) error
	Keys(ctx context.Context, collection string) ([]string, error)
}
