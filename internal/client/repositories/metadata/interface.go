// Package metadata stores small key/value records for the client session:
// the access token and per-entry trace ids.
package metadata

import "context"

type Repository interface {
	// Get returns the value stored under key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every record; used on logout.
	Clear(ctx context.Context) error
}
