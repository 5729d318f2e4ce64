package jwks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/upb/casting-agency/autherr"
	"github.com/upb/casting-agency/internal/observability"
)

// Config configures the key-set cache
type Config struct {
	// CacheTTL bounds how long a fetched set is trusted before the next
	// resolution refreshes it. Zero disables time-based expiry.
	CacheTTL time.Duration

	// MinRefreshInterval is the minimum age of the current set before a cache
	// miss may refetch it. Zero means every miss refetches.
	MinRefreshInterval time.Duration

	// FetchTimeout bounds a single fetch independently of any caller.
	// Default: 10s
	FetchTimeout time.Duration
}

const defaultFetchTimeout = 10 * time.Second

// Option customizes a Cache
type Option func(*Cache)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m observability.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache owns the current key set and refreshes it on demand.
//
// Readers load the current set through an atomic pointer and never observe a
// partially built set. Refreshes go through a singleflight group so at most one
// fetch is in flight and concurrent misses wait for it. The fetch is detached
// from the caller that started it; each waiter stops waiting when its own
// context is done.
type Cache struct {
	fetcher Fetcher
	config  Config
	logger  *zap.Logger
	metrics observability.Metrics
	now     func() time.Time

	current atomic.Pointer[KeySet]
	sfGroup singleflight.Group
}

// NewCache creates a cache that loads keys through fetcher
func NewCache(fetcher Fetcher, config Config, opts ...Option) *Cache {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = defaultFetchTimeout
	}
	c := &Cache{
		fetcher: fetcher,
		config:  config,
		logger:  zap.NewNop(),
		metrics: observability.NoopMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the signing key registered under kid. The set is refreshed
// first when it is empty, expired, or does not contain kid.
//
// Fetch failures are reported as KeySetUnavailable; a kid that is still
// unknown after the refresh is reported as UnknownSigningKey.
func (c *Cache) Resolve(ctx context.Context, kid string) (SigningKey, error) {
	seen := c.current.Load()
	if seen != nil && !c.expired(seen) {
		if key, ok := seen.Lookup(kid); ok {
			return key, nil
		}
	}

	set, err := c.refresh(ctx, seen, false)
	if err != nil {
		return SigningKey{}, err
	}

	key, ok := set.Lookup(kid)
	if !ok {
		return SigningKey{}, autherr.New(autherr.KindUnknownSigningKey, fmt.Errorf("kid %q not in key set", kid))
	}
	return key, nil
}

// Refresh fetches the key set unconditionally and publishes it.
func (c *Cache) Refresh(ctx context.Context) (*KeySet, error) {
	return c.refresh(ctx, nil, true)
}

// Snapshot returns the current key set, or nil if none was fetched yet
func (c *Cache) Snapshot() *KeySet {
	return c.current.Load()
}

// Invalidate drops the current key set so the next resolution refetches it
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}

func (c *Cache) expired(set *KeySet) bool {
	return c.config.CacheTTL > 0 && c.now().Sub(set.FetchedAt()) >= c.config.CacheTTL
}

// refresh coalesces concurrent callers into a single fetch. Unless forced, a
// caller reuses the current set when it was published after the caller looked
// (seen) or when it is younger than MinRefreshInterval.
func (c *Cache) refresh(ctx context.Context, seen *KeySet, force bool) (*KeySet, error) {
	ch := c.sfGroup.DoChan("refresh", func() (any, error) {
		if !force {
			if cur := c.current.Load(); cur != nil && !c.expired(cur) {
				if cur != seen {
					return cur, nil
				}
				if c.config.MinRefreshInterval > 0 &&
					c.now().Sub(cur.FetchedAt()) < c.config.MinRefreshInterval {
					return cur, nil
				}
			}
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.FetchTimeout)
		defer cancel()

		keys, err := c.fetcher.Fetch(fetchCtx)
		c.metrics.RecordKeySetRefresh(fetchCtx, len(keys), err)
		if err != nil {
			c.logger.Warn("key set fetch failed", zap.Error(err))
			return nil, autherr.New(autherr.KindKeySetUnavailable, err)
		}

		set := NewKeySet(keys, c.now())
		c.current.Store(set)
		c.logger.Info("key set refreshed",
			zap.Int("keys", set.Len()),
			zap.Strings("kids", set.KeyIDs()))
		return set, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*KeySet), nil
	case <-ctx.Done():
		return nil, autherr.New(autherr.KindKeySetUnavailable, ctx.Err())
	}
}
