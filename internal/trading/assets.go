package trading

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"traderpro/internal/broker"
)

// AssetCache remembers each portfolio's tradable symbol list for a fixed
// window. When the broker cannot list assets the fallback list is served
// and nothing is cached, so the next call asks the broker again.
type AssetCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	fallback []string
	entries  map[string]assetEntry
	now      func() time.Time
	log      *slog.Logger
}

type assetEntry struct {
	symbols []string
	fetched time.Time
}

// NewAssetCache creates an AssetCache.
func NewAssetCache(ttl time.Duration, fallback []string) *AssetCache {
	return &AssetCache{
		ttl:      ttl,
		fallback: clone(fallback),
		entries:  make(map[string]assetEntry),
		now:      time.Now,
		log:      slog.Default().With("component", "assets"),
	}
}

// Symbols returns the cached list for key, refreshing it from b when
// stale. fromFallback reports that the broker failed and the configured
// fallback list was returned instead.
func (c *AssetCache) Symbols(ctx context.Context, key string, b broker.Broker) (symbols []string, fromFallback bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetched) < c.ttl {
		return clone(e.symbols), false
	}

	fresh, err := b.Assets(ctx)
	if err != nil {
		c.log.Warn("asset listing failed, serving fallback", "key", key, "broker", b.Name(), "error", err)
		return clone(c.fallback), true
	}

	c.mu.Lock()
	c.entries[key] = assetEntry{symbols: fresh, fetched: c.now()}
	c.mu.Unlock()
	return clone(fresh), false
}

// Invalidate drops the cached list for key.
func (c *AssetCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func clone(symbols []string) []string {
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out
}
