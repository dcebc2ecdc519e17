package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied request keys so a retried
// write is not applied twice
type IdempotencyStore interface {
	// MarkProcessed claims a key with a TTL.
	// Returns true if the key was newly claimed, false if it was already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// SaveResult stores the outcome of a claimed request for replay
	SaveResult(ctx context.Context, key string, result []byte, ttl time.Duration) error

	// GetResult returns the stored outcome. ok is false while the claimed
	// request is still running or when the key is unknown.
	GetResult(ctx context.Context, key string) (result []byte, ok bool, err error)

	// Release forgets a key, used when the claimed request failed and may be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
