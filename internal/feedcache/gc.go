package feedcache

import (
	"context"
	"fmt"
)

// RetainSet returns the store keys referenced by the two manifests.
// Paths that do not sit under the layout's public prefix are ignored.
func RetainSet(photos []*Document, users []UserManifestRecord, layout Layout) map[string]bool {
	retain := make(map[string]bool, len(photos)+len(users))
	for _, rec := range photos {
		p, ok := rec.LookupString("images", "locally_stored", "url")
		if !ok {
			continue
		}
		if key, ok := layout.KeyForPublicPath(p); ok {
			retain[key] = true
		}
	}
	for _, rec := range users {
		if key, ok := layout.KeyForPublicPath(rec.Image.Src); ok {
			retain[key] = true
		}
	}
	return retain
}

// CollectGarbage deletes every asset in the store that neither manifest
// references and that keep does not protect. It returns the deleted keys.
//
// The sweep is not transactional. A failed delete is reported through the
// returned error but does not stop the sweep; whatever is left behind is
// picked up by the next run.
func CollectGarbage(ctx context.Context, store AssetStore, photos []*Document, users []UserManifestRecord, layout Layout, keep *KeepMatcher) ([]string, error) {
	retain := RetainSet(photos, users, layout)

	onDisk, err := store.List(ctx, layout.AssetExt)
	if err != nil {
		return nil, fmt.Errorf("listing cached assets: %w", err)
	}

	var deleted []string
	var firstErr error
	for _, key := range onDisk {
		if retain[key] || keep.Match(key) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := store.Delete(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("deleting %s: %w", key, err)
			}
			continue
		}
		deleted = append(deleted, key)
	}
	return deleted, firstErr
}
