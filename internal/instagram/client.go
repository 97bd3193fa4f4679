// Package instagram fetches media listings and binary assets over HTTP.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"feedcache/internal/config"
	"feedcache/internal/feedcache"
)

const (
	maxListingSize = 16 << 20
	maxAssetSize   = 32 << 20
)

// Client implements feedcache.Fetcher against the Instagram API.
type Client struct {
	HTTP   *http.Client
	logger feedcache.Logger
}

// NewClient builds a client whose requests time out after timeout and go
// through the configured proxy, or the environment's proxy when none is set.
func NewClient(timeout time.Duration, proxy config.ProxyConfig, logger feedcache.Logger) (*Client, error) {
	if logger == nil {
		logger = feedcache.NewNopLogger()
	}

	proxyFunc := http.ProxyFromEnvironment
	if proxy.URL != "" {
		u, err := url.Parse(proxy.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		if proxy.Username != "" {
			u.User = url.UserPassword(proxy.Username, proxy.Password)
		}
		proxyFunc = http.ProxyURL(u)
	}

	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// envelope is the API's response wrapper.
type envelope struct {
	Meta *struct {
		Code         int    `json:"code"`
		ErrorType    string `json:"error_type"`
		ErrorMessage string `json:"error_message"`
	} `json:"meta"`
	Data []json.RawMessage `json:"data"`
}

// FetchFeed calls endpoint with the access token. The status is meta.code
// when the body carries one, otherwise the HTTP status. Items that lack the
// fields the cache depends on are skipped with a warning.
func (c *Client) FetchFeed(ctx context.Context, endpoint, token string) ([]*feedcache.RemoteItem, int, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	body, status, err := c.get(ctx, u.String(), maxListingSize)
	if err != nil {
		return nil, status, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status == http.StatusOK {
			status = 0
		}
		return nil, status, fmt.Errorf("decoding response from %s: %w", u.Redacted(), err)
	}
	if env.Meta != nil && env.Meta.Code != 0 {
		status = env.Meta.Code
	}
	if status != http.StatusOK {
		if env.Meta != nil && env.Meta.ErrorMessage != "" {
			return nil, status, fmt.Errorf("API error %d (%s): %s", status, env.Meta.ErrorType, env.Meta.ErrorMessage)
		}
		return nil, status, fmt.Errorf("API returned status %d", status)
	}

	items := make([]*feedcache.RemoteItem, 0, len(env.Data))
	for i, raw := range env.Data {
		doc := feedcache.NewDocument()
		if err := json.Unmarshal(raw, doc); err != nil {
			c.logger.Warn("skipping undecodable item", "index", i, "error", err)
			continue
		}
		item, err := feedcache.NewRemoteItem(doc)
		if err != nil {
			c.logger.Warn("skipping invalid item", "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, status, nil
}

// Download returns the body of the asset at rawURL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	body, status, err := c.get(ctx, rawURL, maxAssetSize)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("download returned status %d", status)
	}
	return body, nil
}

// get performs a GET and reads at most limit bytes of the body. Transport
// failures and client timeouts wrap feedcache.ErrUnreachable unless ctx
// ended first.
func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, 0, fmt.Errorf("%w: request timed out: %w", feedcache.ErrUnreachable, err)
		}
		return nil, 0, fmt.Errorf("%w: %w", feedcache.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, resp.StatusCode, fmt.Errorf("response exceeds %d bytes", limit)
	}
	return body, resp.StatusCode, nil
}

// Compile-time check that Client implements feedcache.Fetcher
var _ feedcache.Fetcher = (*Client)(nil)
