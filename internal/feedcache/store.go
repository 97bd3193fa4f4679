package feedcache

import (
	"context"
	"io"
)

// AssetStore holds cached assets and the manifests that reference them.
// Keys are slash-separated paths relative to the store root.
type AssetStore interface {
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Put stores size bytes read from r under key, replacing any previous
	// object. Readers of key never observe a partially written object.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the object stored under key to w.
	// Returns an error wrapping ErrAssetNotFound when key is absent.
	Get(ctx context.Context, key string, w io.Writer) error

	// List returns every key ending in ext, recursively, sorted.
	List(ctx context.Context, ext string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Relax opens up access to key so other local processes can read and
	// replace it. Backends without file permissions return nil.
	Relax(ctx context.Context, key string) error

	// ValidateSetup verifies that the store is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
