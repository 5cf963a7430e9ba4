package store

import (
	"context"
	"log/slog"

	"github.com/mmcdole/modbrowse/internal/domain"
)

// CachedIconSource serves icons from the store and falls back to upstream,
// persisting what upstream returns.
type CachedIconSource struct {
	store    *IconStore
	upstream domain.IconSource
	logger   *slog.Logger
}

// NewCachedIconSource wraps upstream with the disk tier
func NewCachedIconSource(store *IconStore, upstream domain.IconSource, logger *slog.Logger) *CachedIconSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedIconSource{store: store, upstream: upstream, logger: logger}
}

// FetchIcon implements domain.IconSource
func (c *CachedIconSource) FetchIcon(ctx context.Context, key, url string) ([]byte, error) {
	if data, ok := c.store.Get(key, url); ok {
		return data, nil
	}

	data, err := c.upstream.FetchIcon(ctx, key, url)
	if err != nil || len(data) == 0 {
		return data, err
	}

	if err := c.store.Put(key, url, data); err != nil {
		c.logger.Warn("failed to persist icon", "error", err, "key", key)
	}
	return data, nil
}
