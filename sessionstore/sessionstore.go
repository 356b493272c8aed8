// Package sessionstore defines the storage contract applications use to
// carry per-session state across event batches. The protocol core never
// touches it: which state a session keeps, and for how long, is
// application policy.
package sessionstore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is keyed by session ID as minted during the mount handshake.
type Store interface {
	// Get retrieves the state blob for a session. Returns a nil Item if
	// the session is unknown or its state has expired; errors are
	// reserved for storage system failures.
	Get(ctx context.Context, sessionID string) (*Item, error)

	// Set stores the state blob for a session, replacing any previous
	// value.
	Set(ctx context.Context, sessionID string, data []byte, opts ...Option) error

	// Delete removes a session's state. Deleting an unknown session is
	// not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases the storage backend's resources.
	Close() error
}

// Item is a stored state blob with metadata.
type Item struct {
	Data      []byte
	CreatedAt time.Time
	ExpiresAt *time.Time // nil = no expiration
}

// IsExpired checks if the item has expired.
func (it *Item) IsExpired() bool {
	return it.ExpiresAt != nil && time.Now().After(*it.ExpiresAt)
}

// Option configures storage operations.
type Option func(*Options)

// Options contains configuration for storage operations.
type Options struct {
	TTL *time.Duration
}

// Apply folds opts into the receiver.
func (o *Options) Apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithTTL sets a time-to-live for the stored data.
func WithTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.TTL = &ttl
	}
}

// NewSessionID mints a fresh session identifier for the mount handshake.
func NewSessionID() string {
	return uuid.NewString()
}
