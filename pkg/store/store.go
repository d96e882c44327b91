// Package store defines the storage tier for the optional weather
// response cache. Implementations hold small serialized responses keyed
// by a lookup hash; freshness policy lives with the client, not the store.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("store: entry not found")

// Entry holds metadata stored alongside a cached response.
type Entry struct {
	Location string    `json:"location"`
	Unit     string    `json:"unit"`
	StoredAt time.Time `json:"stored_at"`
}

// Store is a single cache tier. All implementations must be safe for
// concurrent use.
type Store interface {
	// Get retrieves a cached value and its entry metadata.
	Get(ctx context.Context, key string) ([]byte, *Entry, error)

	// Set stores a value with its entry metadata, replacing any previous
	// value for the key.
	Set(ctx context.Context, key string, value []byte, entry *Entry) error

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
