package unogs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// CacheTTL is how long a cached response is considered fresh
const CacheTTL = 24 * time.Hour

// Clock returns the current time
type Clock func() time.Time

// Cache stores raw API responses on disk, one file per query key
type Cache struct {
	fs     afero.Fs
	dir    string
	now    Clock
	logger zerolog.Logger
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithCacheClock sets the time source used for freshness checks
func WithCacheClock(now Clock) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// WithCacheFs sets the filesystem backing the cache
func WithCacheFs(fs afero.Fs) CacheOption {
	return func(c *Cache) {
		c.fs = fs
	}
}

// NewCache creates a cache rooted at dir
func NewCache(dir string, logger zerolog.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		fs:     afero.NewOsFs(),
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the file backing a cache key
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, filepath.FromSlash(key)+".json")
}

// Read returns the cached document for key
func (c *Cache) Read(key string) (json.RawMessage, error) {
	data, err := afero.ReadFile(c.fs, c.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if err := validateDocument(data); err != nil {
		return nil, &MalformedResponseError{Key: key, Err: err}
	}
	return json.RawMessage(data), nil
}

// Write stores body under key, replacing any previous entry
func (c *Cache) Write(key string, body []byte) error {
	path := c.Path(key)
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := afero.WriteFile(c.fs, path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	// Freshness is judged against c.now, so stamp the file with it too.
	now := c.now()
	if err := c.fs.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("failed to stamp cache entry %s: %w", key, err)
	}

	c.logger.Debug().Str("key", key).Int("bytes", len(body)).Msg("Wrote cache entry")
	return nil
}

// IsFresh returns true if the entry exists and was written less than a day ago
func (c *Cache) IsFresh(key string) bool {
	info, err := c.fs.Stat(c.Path(key))
	if err != nil || info.IsDir() {
		return false
	}
	return !c.IsStale(info)
}

// IsStale is the purge predicate: modified at or before now minus CacheTTL
func (c *Cache) IsStale(info os.FileInfo) bool {
	return !info.ModTime().After(c.now().Add(-CacheTTL))
}

// Purge deletes stale entries for one query kind and returns how many were removed
func (c *Cache) Purge(kind string) (int, error) {
	dir := filepath.Join(c.dir, kind)
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list cache directory %s: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !c.IsStale(entry) {
			continue
		}
		if err := c.fs.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		removed++
	}

	if removed > 0 {
		c.logger.Debug().Str("kind", kind).Int("removed", removed).Msg("Purged stale cache entries")
	}
	return removed, nil
}

func validateDocument(data []byte) error {
	var doc any
	return json.Unmarshal(data, &doc)
}
