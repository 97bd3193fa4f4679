package feedcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// CacheStatus describes how the store lines up with its manifests.
type CacheStatus struct {
	Photos  int
	Users   int
	Assets  int
	Missing []string // referenced by a manifest but absent from the store
	Orphans []string // stored but referenced by neither manifest
}

// Consistent reports whether the store and manifests agree exactly.
func (s *CacheStatus) Consistent() bool {
	return len(s.Missing) == 0 && len(s.Orphans) == 0
}

// ReadManifests loads both manifests from the store. A missing manifest reads
// as empty.
func ReadManifests(ctx context.Context, store AssetStore, photoKey, userKey string) ([]*Document, []UserManifestRecord, error) {
	var photos []*Document
	if err := readManifest(ctx, store, photoKey, &photos); err != nil {
		return nil, nil, fmt.Errorf("reading photo manifest: %w", err)
	}
	var users []UserManifestRecord
	if err := readManifest(ctx, store, userKey, &users); err != nil {
		return nil, nil, fmt.Errorf("reading user manifest: %w", err)
	}
	return photos, users, nil
}

func readManifest(ctx context.Context, store AssetStore, key string, v any) error {
	var buf bytes.Buffer
	if err := store.Get(ctx, key, &buf); err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return nil
		}
		return err
	}
	return json.Unmarshal(buf.Bytes(), v)
}

// Inspect compares the stored manifests with the stored assets.
func Inspect(ctx context.Context, store AssetStore, opts Options) (*CacheStatus, error) {
	photos, users, err := ReadManifests(ctx, store, opts.PhotoManifest, opts.UserManifest)
	if err != nil {
		return nil, err
	}

	retain := RetainSet(photos, users, opts.Layout)
	onDisk, err := store.List(ctx, opts.Layout.AssetExt)
	if err != nil {
		return nil, fmt.Errorf("listing cached assets: %w", err)
	}

	keep := NewKeepMatcher(opts.Keep)
	status := &CacheStatus{Photos: len(photos), Users: len(users), Assets: len(onDisk)}
	present := make(map[string]bool, len(onDisk))
	for _, key := range onDisk {
		present[key] = true
		if !retain[key] && !keep.Match(key) {
			status.Orphans = append(status.Orphans, key)
		}
	}
	for key := range retain {
		if !present[key] {
			status.Missing = append(status.Missing, key)
		}
	}
	sort.Strings(status.Missing)
	return status, nil
}
