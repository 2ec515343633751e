package pricecache

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultTTL is the freshness window for a cached price.
const DefaultTTL = 60 * time.Second

// Fetcher resolves a token symbol to its USD price.
type Fetcher interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// entry carries its own fetch timestamp so staleness is judged against the
// injected clock rather than go-cache's expiry sweep.
type entry struct {
	price     float64
	fetchedAt time.Time
}

// Cache serves USD prices stale-while-revalidate: a fresh entry is returned
// directly, a stale entry is returned immediately while a background refresh
// runs, and a miss is fetched synchronously. A lookup never blocks on a
// refresh and always produces a usable value (1.0 on total failure).
type Cache struct {
	store   *gocache.Cache
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock injects the time source, used by tests to control staleness.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// New creates a price cache around a fetcher.
func New(fetcher Fetcher, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:    gocache.New(gocache.NoExpiration, 10*time.Minute),
		fetcher:  fetcher,
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   logger.Named("PriceCache"),
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Price returns the USD price for a symbol.
func (c *Cache) Price(ctx context.Context, symbol string) float64 {
	key := strings.ToUpper(symbol)

	if x, found := c.store.Get(key); found {
		e := x.(entry)
		if c.now().Sub(e.fetchedAt) <= c.ttl {
			return e.price
		}
		// Stale: serve the old value now and refresh behind it.
		c.refreshAsync(key)
		return e.price
	}

	return c.fetch(ctx, key)
}

// Invalidate drops every cached price so the next lookup per symbol is a
// fresh network fetch. Called after a confirmed bridge transaction.
func (c *Cache) Invalidate() {
	c.store.Flush()
	c.logger.Debug("Price cache invalidated")
}

func (c *Cache) refreshAsync(key string) {
	c.mu.Lock()
	if c.inflight[key] {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()
		c.fetch(context.Background(), key)
	}()
}

func (c *Cache) fetch(ctx context.Context, key string) float64 {
	price, err := c.fetcher.Price(ctx, key)
	if err != nil {
		c.logger.Warn("Price fetch failed, defaulting to $1", zap.String("symbol", key), zap.Error(err))
		return 1.0
	}
	c.store.Set(key, entry{price: price, fetchedAt: c.now()}, gocache.NoExpiration)
	return price
}
