package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so a redelivered outbox
// entry does not post the same journal twice.
type IdempotencyStore interface {
	// MarkProcessed returns true if the event was newly marked,
	// false if it had already been processed within ttl.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Unmark releases a key so a failed handler can be retried
	Unmark(ctx context.Context, eventID string) error
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}

// IdempotencyConfig holds configuration for idempotent event handling
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps processed keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
