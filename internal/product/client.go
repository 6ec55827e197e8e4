// Package product looks up products in an Open Food Facts compatible
// database and converts them into analyzer input.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/foodlens/internal/cache"
	"github.com/ppiankov/foodlens/internal/metrics"
	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/worker"
)

var (
	// ErrNotFound is returned when the database has no matching product
	ErrNotFound = errors.New("product not found")

	// ErrDisallowed is returned when robots.txt forbids the request
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// Client queries the product database through cache, rate limiter and fetcher
type Client struct {
	baseURL string
	fetcher *Fetcher
	cache   cache.Cache // nil disables caching
	limiter *worker.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithCache sets the response cache
func WithCache(c cache.Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a client from HTTP and rate limiting configuration
func NewClient(httpCfg model.HTTPConfig, rl model.RateLimitingConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(httpCfg.BaseURL, "/"),
		fetcher: NewFetcher(httpCfg.Timeout, httpCfg.UserAgent, httpCfg.MaxBodyBytes,
			httpCfg.RespectRobots, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		limiter: worker.NewLimiter(rl.RequestsPerSecond, rl.BurstSize),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ByBarcode looks up a product by barcode
func (c *Client) ByBarcode(ctx context.Context, code string) (model.ProductInput, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.ProductInput{}, fmt.Errorf("%w: empty barcode", ErrNotFound)
	}

	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(code))
	body, err := c.get(ctx, "barcode", endpoint)
	if err != nil {
		return model.ProductInput{}, err
	}

	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.IncrementLookup("barcode", "error")
		return model.ProductInput{}, fmt.Errorf("decode product: %w", err)
	}
	if resp.Status == 0 {
		c.metrics.IncrementLookup("barcode", "not_found")
		return model.ProductInput{}, fmt.Errorf("%w: barcode %s", ErrNotFound, code)
	}

	if resp.Product.Code == "" {
		resp.Product.Code = code
	}
	return resp.Product.toInput(model.InputBarcode, code, c.ProductURL(code)), nil
}

// Search returns the best match for a free-text product name
func (c *Client) Search(ctx context.Context, query string) (model.ProductInput, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.ProductInput{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", "1")
	endpoint := c.baseURL + "/cgi/search.pl?" + params.Encode()

	body, err := c.get(ctx, "search", endpoint)
	if err != nil {
		return model.ProductInput{}, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.IncrementLookup("search", "error")
		return model.ProductInput{}, fmt.Errorf("decode search: %w", err)
	}
	if len(resp.Products) == 0 {
		c.metrics.IncrementLookup("search", "not_found")
		return model.ProductInput{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	p := resp.Products[0]
	sourceURL := ""
	if p.Code != "" {
		sourceURL = c.ProductURL(p.Code)
	}
	return p.toInput(model.InputSearch, query, sourceURL), nil
}

// ProductURL returns the human-facing page of a product
func (c *Client) ProductURL(code string) string {
	return fmt.Sprintf("%s/product/%s", c.baseURL, url.PathEscape(code))
}

// get returns the body for endpoint, served from cache when possible
func (c *Client) get(ctx context.Context, kind, endpoint string) ([]byte, error) {
	key := cache.CacheKey(endpoint)

	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key); ok {
			c.metrics.IncrementLookup(kind, "hit")
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	result, err := c.fetcher.FetchWithRetry(ctx, endpoint)
	c.metrics.ObserveProductLatency(time.Since(start))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			c.metrics.IncrementLookup(kind, "not_found")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
		}
		c.metrics.IncrementLookup(kind, "error")
		return nil, fmt.Errorf("product lookup: %w", err)
	}
	c.metrics.IncrementLookup(kind, "miss")

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, result.Body, 0); err != nil {
			c.logger.Warn("product cache write failed", "url", endpoint, "error", err)
		}
	}

	return result.Body, nil
}
