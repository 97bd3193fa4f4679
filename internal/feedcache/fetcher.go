package feedcache

import "context"

// Fetcher talks to the remote media API.
type Fetcher interface {
	// FetchFeed calls endpoint with the access token and returns the items it
	// listed along with the API status code. On failure it returns the error
	// and whatever status it managed to read (0 when none).
	FetchFeed(ctx context.Context, endpoint, token string) ([]*RemoteItem, int, error)

	// Download returns the body of a binary asset.
	Download(ctx context.Context, url string) ([]byte, error)
}
