package books

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache namespaces explore pages under a generation counter. Bumping the
// counter orphans old pages, which then expire on their own TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = "bookshelf:cache:"
	}
	return &RedisCache{client: client, prefix: p}
}

func (c *RedisCache) generationKey() string {
	return c.prefix + "explore:gen"
}

func (c *RedisCache) pageKey(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return c.prefix + "explore:" + gen + ":" + key, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*ExploreResult, bool, error) {
	k, err := c.pageKey(ctx, key)
	if err != nil {
		return nil, false, err
	}

	val, err := c.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var res ExploreResult
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, false, err
	}
	return &res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, res ExploreResult, ttl time.Duration) error {
	k, err := c.pageKey(ctx, key)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, k, payload, ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}
