// Package cache provides the string-keyed payload store backing the
// fetch-with-fallback protocol. Keys are the exact request URLs and values
// are the JSON payloads serialized as text.
package cache

import "context"

// Store is an asynchronous string-keyed get/set/clear capability. Entries are
// independently keyed and idempotent, so callers need no locking beyond what
// each implementation provides per key.
type Store interface {
	// Get returns the payload stored under key. The second return value
	// reports whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the payload under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Keys lists every key currently held by the store.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every entry from the store.
	Clear(ctx context.Context) error
}
