package feedcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// unreachableMessage is logged when the API cannot be reached at all, which
// points at the host environment rather than the API.
const unreachableMessage = "Error accessing Instagram API: Please ensure that this server can access the Internet"

// Options configures a Reconciler.
type Options struct {
	FeedEndpoint  string
	LikedEndpoint string

	// MaxItems caps the working set to the most recent items.
	MaxItems int

	Layout Layout

	// PhotoManifest and UserManifest are the store keys of the two manifests.
	PhotoManifest string
	UserManifest  string

	// Keep lists patterns of assets garbage collection must leave alone.
	Keep []string

	// AbortOnDownloadError stops the run at the first failed asset download
	// instead of skipping the asset.
	AbortOnDownloadError bool
}

// Reconciler mirrors the ranked working set into an AssetStore.
type Reconciler struct {
	opts    Options
	fetcher Fetcher
	store   AssetStore
	keep    *KeepMatcher
	logger  Logger
}

// NewReconciler creates a Reconciler with the provided dependencies.
func NewReconciler(opts Options, fetcher Fetcher, store AssetStore, logger Logger) *Reconciler {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Reconciler{
		opts:    opts,
		fetcher: fetcher,
		store:   store,
		keep:    NewKeepMatcher(opts.Keep),
		logger:  logger,
	}
}

// Run executes one reconciliation: fetch, rank, download, rewrite, collect.
//
// A failed feed call only empties that call's collection. The manifests are
// written after every download has been attempted, and garbage collection
// runs only once both manifests are stored. An error is returned when the run
// could not write its manifests; in that case the previous manifests and
// assets are left as they were.
func (r *Reconciler) Run(ctx context.Context, token string) (*RunResult, error) {
	result := &RunResult{}

	feed, status := r.fetch(ctx, "feed", r.opts.FeedEndpoint, token)
	result.FeedStatus = status
	liked, status := r.fetch(ctx, "liked", r.opts.LikedEndpoint, token)
	result.LikedStatus = status

	working := Merge(feed, liked, r.opts.MaxItems)
	result.Items = len(working)
	r.logger.Debug("working set ranked", "feed", len(feed), "liked", len(liked), "items", len(working))

	users := newUserSet()
	photoRecords := make([]*Document, 0, len(working))

	for _, item := range working {
		users.add(item.User)
		photoRecords = append(photoRecords, RewriteItem(item, r.opts.Layout))

		downloaded, err := r.ensureAsset(ctx, r.opts.Layout.PhotoKey(item), item.ImageURL)
		if err != nil {
			if err := r.downloadFailed(ctx, result, "photo", item.ImageURL, err); err != nil {
				return nil, err
			}
			continue
		}
		if downloaded {
			result.PhotosDownloaded++
		}
	}

	userList := users.list()
	result.Users = len(userList)
	for _, u := range userList {
		downloaded, err := r.ensureAsset(ctx, r.opts.Layout.AvatarKey(u.ID), u.AvatarURL)
		if err != nil {
			if err := r.downloadFailed(ctx, result, "avatar", u.AvatarURL, err); err != nil {
				return nil, err
			}
			continue
		}
		if downloaded {
			result.AvatarsDownloaded++
		}
	}

	userRecords := RewriteUsers(userList, r.opts.Layout)
	if err := r.writeManifests(ctx, photoRecords, userRecords); err != nil {
		return nil, err
	}

	r.logChanges(result)

	deleted, err := CollectGarbage(ctx, r.store, photoRecords, userRecords, r.opts.Layout, r.keep)
	result.Deleted = deleted
	for _, key := range deleted {
		r.logger.Debug("orphan asset removed", "key", key)
	}
	if err != nil {
		// The manifests are already in place; leftovers go on the next run.
		r.logger.Warn("garbage collection incomplete", "error", err)
	}

	r.logger.Info("sync complete",
		"items", result.Items,
		"photos_downloaded", result.PhotosDownloaded,
		"avatars_downloaded", result.AvatarsDownloaded,
		"download_failures", result.DownloadFailures,
		"deleted", len(result.Deleted),
		"status", result.Status(),
	)
	return result, nil
}

// fetch calls one endpoint and degrades any failure to an empty collection.
func (r *Reconciler) fetch(ctx context.Context, name, endpoint, token string) ([]*RemoteItem, int) {
	items, status, err := r.fetcher.FetchFeed(ctx, endpoint, token)
	if err != nil {
		if errors.Is(err, ErrUnreachable) {
			r.logger.Error(unreachableMessage, "endpoint", name, "error", err)
		} else {
			r.logger.Warn("feed request failed", "endpoint", name, "status", status, "error", err)
		}
		return nil, status
	}
	if status != http.StatusOK {
		r.logger.Warn("feed returned non-success status", "endpoint", name, "status", status)
	}
	return items, status
}

// ensureAsset downloads url into key unless key is already cached.
// It reports whether a download happened.
func (r *Reconciler) ensureAsset(ctx context.Context, key, url string) (bool, error) {
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	if exists {
		return false, nil
	}
	if url == "" {
		return false, fmt.Errorf("no source url for %s", key)
	}

	data, err := r.fetcher.Download(ctx, url)
	if err != nil {
		return false, fmt.Errorf("downloading %s: %w", key, err)
	}
	if err := r.store.Put(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return false, fmt.Errorf("storing %s: %w", key, err)
	}
	r.relaxPermissions(ctx, key)

	r.logger.Debug("asset cached", "key", key, "size", len(data))
	return true, nil
}

// downloadFailed applies the download error policy. It returns a non-nil
// error when the run must stop.
func (r *Reconciler) downloadFailed(ctx context.Context, result *RunResult, kind, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("sync interrupted: %w", ctxErr)
	}
	if r.opts.AbortOnDownloadError {
		return fmt.Errorf("caching %s: %w", kind, err)
	}
	result.DownloadFailures++
	r.logger.Warn("asset download skipped", "kind", kind, "url", url, "error", err)
	return nil
}

// relaxPermissions opens up key for other local processes. Failure ignored.
func (r *Reconciler) relaxPermissions(ctx context.Context, key string) {
	if err := r.store.Relax(ctx, key); err != nil {
		r.logger.Debug("permission change failed", "key", key, "error", err)
	}
}

func (r *Reconciler) writeManifests(ctx context.Context, photos []*Document, users []UserManifestRecord) error {
	if err := r.writeManifest(ctx, r.opts.PhotoManifest, photos); err != nil {
		return fmt.Errorf("writing photo manifest: %w", err)
	}
	if err := r.writeManifest(ctx, r.opts.UserManifest, users); err != nil {
		return fmt.Errorf("writing user manifest: %w", err)
	}
	return nil
}

func (r *Reconciler) writeManifest(ctx context.Context, key string, v any) error {
	data, err := EncodeManifest(v)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return err
	}
	r.relaxPermissions(ctx, key)
	return nil
}

func (r *Reconciler) logChanges(result *RunResult) {
	switch n := result.PhotosDownloaded; {
	case n == 1:
		r.logger.Info("1 photo has been updated from the Instagram feed")
	case n > 1:
		r.logger.Info(fmt.Sprintf("%d photos have been updated from the Instagram feed", n))
	}
	switch n := result.AvatarsDownloaded; {
	case n == 1:
		r.logger.Info("1 user profile photo has been updated from the Instagram feed")
	case n > 1:
		r.logger.Info(fmt.Sprintf("%d user profile photos have been updated from the Instagram feed", n))
	}
}

// EncodeManifest renders a manifest the way it is stored: indented JSON with
// a trailing newline.
func EncodeManifest(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}
