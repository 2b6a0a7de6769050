// Package objstore stores uploaded objects and resolves their public URLs.
package objstore

import (
	"context"
	"errors"
)

var ErrInvalidKey = errors.New("objstore: invalid object key")

// Store is a flat key/value object store with public read access.
type Store interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	// Check verifies the backend is reachable and writable.
	Check(ctx context.Context) error
	Name() string
}
