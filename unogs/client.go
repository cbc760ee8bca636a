package unogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Client answers queries from the disk cache when possible and from the API
// otherwise, honoring the per-host rate limit lock.
type Client struct {
	transport   Transport
	cache       *Cache
	lockDir     string
	limiterOpts []LimiterOption
	limiters    map[string]*Limiter
	logger      zerolog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLimiterOptions sets the options applied to every per-host limiter
func WithLimiterOptions(opts ...LimiterOption) ClientOption {
	return func(c *Client) {
		c.limiterOpts = append(c.limiterOpts, opts...)
	}
}

// WithLimiter installs a limiter for the host of endpoint instead of
// deriving one from the lock directory.
func WithLimiter(endpoint string, limiter *Limiter) ClientOption {
	return func(c *Client) {
		if name, err := APIName(endpoint); err == nil {
			c.limiters[name] = limiter
		}
	}
}

// NewClient creates a query client. Lock files are kept in lockDir, one per API host.
func NewClient(transport Transport, cache *Cache, lockDir string, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		cache:     cache,
		lockDir:   lockDir,
		limiters:  make(map[string]*Limiter),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the underlying cache store
func (c *Client) Cache() *Cache {
	return c.cache
}

// Limiter returns the limiter guarding the host of endpoint
func (c *Client) Limiter(endpoint string) (*Limiter, error) {
	name, err := APIName(endpoint)
	if err != nil {
		return nil, err
	}
	if l, ok := c.limiters[name]; ok {
		return l, nil
	}

	l := NewLimiter(filepath.Join(c.lockDir, name), c.logger, c.limiterOpts...)
	c.limiters[name] = l
	return l, nil
}

// Get returns the JSON document for q. A fresh cache entry is returned
// without consulting the rate limiter; otherwise the API is queried and the
// response cached.
func (c *Client) Get(ctx context.Context, q Query) (json.RawMessage, error) {
	key := q.CacheKey()

	if c.cache.IsFresh(key) {
		c.logger.Debug().Str("key", key).Msg("Serving from cache")
		return c.cache.Read(key)
	}

	return c.download(ctx, q)
}

func (c *Client) download(ctx context.Context, q Query) (json.RawMessage, error) {
	key := q.CacheKey()

	limiter, err := c.Limiter(q.Endpoint())
	if err != nil {
		return nil, err
	}

	locked, err := limiter.IsLocked()
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrRateLimitExceeded, limiter.Path())
	}

	c.logger.Debug().Str("key", key).Str("url", CompiledURL(q)).Msg("Downloading")

	resp, err := c.transport.Do(ctx, &Request{
		Endpoint: q.Endpoint(),
		Params:   q.Params(),
		Header:   make(http.Header),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || len(resp.Body) == 0 {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Reason:     resp.Reason,
			URL:        CompiledURL(q),
		}
	}

	if err := validateDocument(resp.Body); err != nil {
		return nil, &MalformedResponseError{Key: key, Err: err}
	}

	if err := c.cache.Write(key, resp.Body); err != nil {
		return nil, err
	}

	if err := c.recordRemaining(limiter, resp.Header); err != nil {
		return nil, err
	}

	return json.RawMessage(resp.Body), nil
}

// recordRemaining feeds the remaining-request header to the limiter. A missing
// or unreadable header is logged and otherwise ignored.
func (c *Client) recordRemaining(limiter *Limiter, header http.Header) error {
	raw := strings.TrimSpace(header.Get(RemainingHeader))
	if raw == "" {
		c.logger.Warn().Str("header", RemainingHeader).Msg("Response has no rate limit header, remaining requests unknown")
		return nil
	}

	remaining, err := strconv.Atoi(raw)
	if err != nil {
		c.logger.Warn().Str("header", RemainingHeader).Str("value", raw).Msg("Unreadable rate limit header, remaining requests unknown")
		return nil
	}

	c.logger.Info().Int("remaining", remaining).Msg("Rate limit remaining")
	return limiter.RecordSuccess(remaining)
}
