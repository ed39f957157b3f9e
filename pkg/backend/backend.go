// Package backend provides key/value storage backends for the cache service
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backend could not be reached (connection
// failure, timeout, closed client). Callers higher in the stack collapse it
// to a cache miss.
var ErrUnavailable = errors.New("backend: unavailable")

// Backend defines the interface for cache storage backends
type Backend interface {
	// Get retrieves a value from the backend.
	// Returns the raw value, whether the key was present, and any error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the backend with a TTL.
	// A zero TTL stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the backend. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present without fetching its value
	Exists(ctx context.Context, key string) (bool, error)

	// Increment atomically increments the integer counter stored at key,
	// creating it at 1 if absent, and returns the new value.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets or refreshes the TTL on an existing key. Expiring a
	// missing key is not an error.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping issues a minimal round-trip to verify the backend is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the backend
	Close() error
}

// Entry represents a stored entry in the in-memory backend
type Entry struct {
	Value     []byte    // Stored value
	ExpiresAt time.Time // Expiration time, zero means no expiry
	CreatedAt time.Time // Creation time
}

// IsExpired checks if the entry has expired
func (e *Entry) IsExpired() bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.ExpiresAt)
}
