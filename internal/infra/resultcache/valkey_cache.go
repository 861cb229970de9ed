package resultcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// ValkeyCache shares cached results between instances.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache under prefix.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "nutriforecast"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

func (c *ValkeyCache) Get(ctx context.Context, key string) (nutrition.BatchResult, bool, error) {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nutrition.BatchResult{}, false, nil
		}
		return nutrition.BatchResult{}, false, err
	}
	var result nutrition.BatchResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nutrition.BatchResult{}, false, err
	}
	return result, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, key string, result nutrition.BatchResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.key(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) key(hash string) string {
	return fmt.Sprintf("%s:result:%s", c.prefix, hash)
}

var _ analysis.ResultCache = (*ValkeyCache)(nil)
