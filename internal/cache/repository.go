// Package cache is the client's local fast-access key/value store, kept in
// an SQLite file next to the CLI.
package cache

import (
	"context"
)

// Repository is a namespaced key/value store. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
