package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"feedcache/internal/feedcache"
)

// LockFileName is the run lock inside base_dir.
const LockFileName = "feedcache.lock"

// acquireRunLock takes the advisory lock that serializes sync runs across
// processes. It returns feedcache.ErrSyncInProgress when another run holds it.
func acquireRunLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, feedcache.ErrSyncInProgress
	}
	return lock, nil
}
