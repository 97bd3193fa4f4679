package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"feedcache/internal/feedcache"
)

// Endpoints used by the fake fetcher in tests.
const (
	FeedEndpoint  = "https://api.test/v1/users/self/feed"
	LikedEndpoint = "https://api.test/v1/users/self/media/liked"
)

// feedResponse is the canned answer for one endpoint.
type feedResponse struct {
	items  []*feedcache.RemoteItem
	status int
	err    error
}

// FakeFetcher is an in-memory feedcache.Fetcher. Endpoints without a canned
// response answer 200 with no items. Every asset URL downloads successfully
// with the body "asset:<url>" unless it was marked as failing.
// Safe for concurrent use.
type FakeFetcher struct {
	mu        sync.Mutex
	feeds     map[string]feedResponse
	failures  map[string]error
	downloads []string
	tokens    []string
}

func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		feeds:    make(map[string]feedResponse),
		failures: make(map[string]error),
	}
}

// SetFeed makes endpoint return items with a 200 status.
func (f *FakeFetcher) SetFeed(endpoint string, items ...*feedcache.RemoteItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds[endpoint] = feedResponse{items: items, status: http.StatusOK}
}

// FailFeed makes endpoint fail with status and err.
func (f *FakeFetcher) FailFeed(endpoint string, status int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds[endpoint] = feedResponse{status: status, err: err}
}

// FailAsset makes downloads of url fail with err.
func (f *FakeFetcher) FailAsset(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[url] = err
}

// Downloads returns every URL downloaded so far, in order.
func (f *FakeFetcher) Downloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.downloads...)
}

// Tokens returns the access tokens passed to FetchFeed, in order.
func (f *FakeFetcher) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

// ResetDownloads forgets recorded downloads.
func (f *FakeFetcher) ResetDownloads() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = nil
}

func (f *FakeFetcher) FetchFeed(_ context.Context, endpoint, token string) ([]*feedcache.RemoteItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	resp, ok := f.feeds[endpoint]
	if !ok {
		return nil, http.StatusOK, nil
	}
	return resp.items, resp.status, resp.err
}

func (f *FakeFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	f.downloads = append(f.downloads, url)
	return []byte("asset:" + url), nil
}

// PhotoURL and AvatarURL are the source URLs Item assigns.
func PhotoURL(id string) string      { return "https://cdn.test/photos/" + id + ".jpg" }
func AvatarURL(userID string) string { return "https://cdn.test/avatars/" + userID + ".jpg" }

// Item builds a RemoteItem the way the API would list it, with a caption and
// like count so tests can check that unrelated fields survive.
func Item(id string, createdTime int64, userID string) *feedcache.RemoteItem {
	raw := fmt.Sprintf(`{
		"id": %q,
		"created_time": "%d",
		"caption": {"text": "caption for %s"},
		"likes": {"count": 3},
		"images": {"standard_resolution": {"url": %q, "width": 640, "height": 640}},
		"user": {"id": %q, "username": "user%s", "profile_picture": %q}
	}`, id, createdTime, id, PhotoURL(id), userID, userID, AvatarURL(userID))

	doc := feedcache.NewDocument()
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		panic(fmt.Sprintf("testutil.Item: %v", err))
	}
	item, err := feedcache.NewRemoteItem(doc)
	if err != nil {
		panic(fmt.Sprintf("testutil.Item: %v", err))
	}
	return item
}

// Compile-time check that FakeFetcher implements feedcache.Fetcher
var _ feedcache.Fetcher = (*FakeFetcher)(nil)
