package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ixfabric/ixfrecon/internal/logger"
)

// Client fetches IX-F documents over HTTP. It keeps a process-wide cache
// of the last successful fetch per URL (plain sync.Map: the cache holds
// at most one entry per configured IXLan feed URL, a count small enough
// that a dedicated cache library would be pure overhead). Fetch hands the
// cached copy back alongside its error when a feed is unreachable (the
// importer treats any Fetch error as a feed-source failure and does not
// use that copy), and FetchCached replays a document without touching the
// network. The cache lives in memory and starts empty in each process.
type Client struct {
	httpClient *http.Client
	cache      sync.Map // url string -> cachedDocument
}

type cachedDocument struct {
	raw      []byte
	fetchedAt time.Time
}

// NewClient returns a Client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Fetch retrieves and decodes the document at url. On success it updates
// the cache for url. On a transport or HTTP-status error, it falls back
// to the last cached copy (if any) and returns it alongside the error; a
// caller that treats the error as fatal, as the importer does, discards
// that copy.
func (c *Client) Fetch(ctx context.Context, url string) (*Document, []byte, error) {
	raw, err := c.fetch(ctx, url)
	if err != nil {
		if cached, ok := c.cache.Load(url); ok {
			cd := cached.(cachedDocument)
			logger.WarnCtx(ctx, "feed fetch failed, using cached copy", "url", url, "cached_at", cd.fetchedAt, "error", err)
			doc, decodeErr := decode(cd.raw)
			if decodeErr != nil {
				return nil, nil, fmt.Errorf("decode cached document for %s: %w", url, decodeErr)
			}
			return doc, cd.raw, fmt.Errorf("%w (served cached copy from %s)", err, cd.fetchedAt.Format(time.RFC3339))
		}
		return nil, nil, err
	}

	doc, err := decode(raw)
	if err != nil {
		return nil, nil, &FeedError{URL: url, Op: "decode", Err: err}
	}
	c.cache.Store(url, cachedDocument{raw: raw, fetchedAt: time.Now()})
	return doc, raw, nil
}

// FetchCached returns the last cached document for url without touching
// the network, used for cache-only replay.
func (c *Client) FetchCached(url string) (*Document, []byte, error) {
	cached, ok := c.cache.Load(url)
	if !ok {
		return nil, nil, &FeedError{URL: url, Op: "fetch", Err: fmt.Errorf("no cached copy available")}
	}
	cd := cached.(cachedDocument)
	doc, err := decode(cd.raw)
	if err != nil {
		return nil, nil, &FeedError{URL: url, Op: "decode", Err: err}
	}
	return doc, cd.raw, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FeedError{URL: url, Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FeedError{URL: url, Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FeedError{URL: url, Op: "fetch", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, &FeedError{URL: url, Op: "read body", Err: err}
	}
	return body, nil
}

func decode(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
