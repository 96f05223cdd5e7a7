package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	feedVersionKey = "feed:version"
	defaultTTL     = time.Minute
)

// RedisFeedCache версионирует ключи: Invalidate увеличивает feed:version,
// старые страницы становятся недостижимы и истекают по TTL.
type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient подключается и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisFeedCache(client *redis.Client, ttl time.Duration) *RedisFeedCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisFeedCache{client: client, ttl: ttl}
}

func (c *RedisFeedCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, feedVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisFeedCache) pageKey(ctx context.Context, page, limit int) (string, error) {
	v, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("feed:v%d:page:%d:limit:%d", v, page, limit), nil
}

func (c *RedisFeedCache) GetPage(ctx context.Context, page, limit int, dst interface{}) (bool, error) {
	key, err := c.pageKey(ctx, page, limit)
	if err != nil {
		return false, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached feed page: %w", err)
	}
	return true, nil
}

func (c *RedisFeedCache) SetPage(ctx context.Context, page, limit int, value interface{}) error {
	key, err := c.pageKey(ctx, page, limit)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode feed page: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisFeedCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, feedVersionKey).Err()
}
