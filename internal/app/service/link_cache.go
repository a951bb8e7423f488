package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss signals that the slug has no cached entry.
var ErrCacheMiss = errors.New("link cache miss")

// LinkCache is a read-through cache keyed by slug, sitting in front of the
// link store on the resolution hot path. Entries are invalidated whenever a
// link is updated or deleted.
type LinkCache interface {
	Get(ctx context.Context, slug string) (*model.Link, error)
	Set(ctx context.Context, link *model.Link) error
	Invalidate(ctx context.Context, slug string) error
}

const cacheKeyPrefix = "link:slug:"

type redisLinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLinkCache returns a redis-backed LinkCache with the given entry
// TTL.
func NewRedisLinkCache(client *redis.Client, ttl time.Duration) LinkCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisLinkCache{client: client, ttl: ttl}
}

func (c *redisLinkCache) Get(ctx context.Context, slug string) (*model.Link, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+slug).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var link model.Link
	if err := json.Unmarshal(data, &link); err != nil {
		// A corrupt entry behaves like a miss; the next Set repairs it.
		_ = c.client.Del(ctx, cacheKeyPrefix+slug).Err()
		return nil, ErrCacheMiss
	}
	return &link, nil
}

func (c *redisLinkCache) Set(ctx context.Context, link *model.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+link.Slug, data, c.ttl).Err()
}

func (c *redisLinkCache) Invalidate(ctx context.Context, slug string) error {
	return c.client.Del(ctx, cacheKeyPrefix+slug).Err()
}
