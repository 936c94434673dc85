// Package idempotency suppresses duplicate side effects for retried mutating
// requests. A client-supplied key scopes "the same logical request"; the
// first completed response is recorded and replayed verbatim for every
// duplicate seen within the retention window.
package idempotency

import (
	"context"
	"time"
)

// Record is the response captured for the first completion of a keyed
// request.
type Record struct {
	StatusCode int       `json:"status_code"`
	Body       []byte    `json:"body"`
	StoredAt   time.Time `json:"stored_at"`
}

// Store is the key-value boundary behind the guard. PutIfAbsent must be
// atomic at this boundary: for a given key, exactly one concurrent caller
// observes stored=true.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	PutIfAbsent(ctx context.Context, key string, rec *Record, ttl time.Duration) (bool, error)
}
