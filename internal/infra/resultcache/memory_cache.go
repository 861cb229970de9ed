package resultcache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

type entry struct {
	result    nutrition.BatchResult
	expiresAt time.Time
}

// MemoryCache is a size bounded in-process cache with per-entry expiry.
type MemoryCache struct {
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// NewMemoryCache constructs a cache holding at most size results.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &MemoryCache{cache: cache, now: time.Now}, nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (nutrition.BatchResult, bool, error) {
	e, ok := c.cache.Get(key)
	if !ok {
		return nutrition.BatchResult{}, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.cache.Remove(key)
		return nutrition.BatchResult{}, false, nil
	}
	return e.result, true, nil
}

// Set stores result; a zero ttl keeps it until evicted.
func (c *MemoryCache) Set(_ context.Context, key string, result nutrition.BatchResult, ttl time.Duration) error {
	e := entry{result: result}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.cache.Add(key, e)
	return nil
}

var _ analysis.ResultCache = (*MemoryCache)(nil)
