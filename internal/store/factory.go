package store

import (
	"context"
	"fmt"

	"feedcache/internal/config"
	"feedcache/internal/feedcache"
)

// NewStoreFromConfig creates an AssetStore implementation based on the store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig) (feedcache.AssetStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(cfg.Name), nil
	case "s3":
		st, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "filesystem", "":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem store requires root to be set")
		}
		st, err := NewFileSystemStore(cfg.Name, cfg.Root)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
