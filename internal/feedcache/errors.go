package feedcache

import "errors"

var (
	// ErrAssetNotFound is returned by AssetStore.Get for a missing key.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrUnreachable marks fetch failures caused by the network rather than
	// the API, such as DNS or dial errors.
	ErrUnreachable = errors.New("remote API unreachable")

	// ErrNotInstalled means the cache has not been set up with `install`.
	ErrNotInstalled = errors.New("feedcache is not installed")

	// ErrSyncInProgress means another run holds the sync lock.
	ErrSyncInProgress = errors.New("sync already in progress")
)
