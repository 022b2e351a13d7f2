package search

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/truthguard/internal/cache"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/worker"
)

// Throttled wraps a provider with a shared rate limit and a result cache.
// Either may be nil.
type Throttled struct {
	Provider
	limiter *worker.Limiter
	cache   cache.Cache
	ttl     time.Duration
}

// NewThrottled wraps p
func NewThrottled(p Provider, limiter *worker.Limiter, c cache.Cache, ttl time.Duration) *Throttled {
	return &Throttled{Provider: p, limiter: limiter, cache: c, ttl: ttl}
}

// Search serves from cache when possible, otherwise waits for a rate
// token and queries the wrapped provider. Empty results are not cached.
func (t *Throttled) Search(ctx context.Context, query string, k int) ([]Result, error) {
	key := cache.Key("search:"+t.Name(), query, strconv.Itoa(k))

	var results []Result
	if cache.GetJSON(t.cache, key, &results) {
		logging.WithComponent("search").Debug("cache hit", "provider", t.Name(), "query", query)
		return results, nil
	}

	if err := t.limiter.Wait(ctx, "search:"+t.Name()); err != nil {
		return nil, err
	}

	results, err := t.Provider.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		if err := cache.SetJSON(t.cache, key, results, t.ttl); err != nil {
			logging.WithComponent("search").Warn("cache write failed", "error", err)
		}
	}
	return results, nil
}
