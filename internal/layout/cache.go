package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheKey = "coach-layout:snapshot"
	DefaultCacheTTL = 30 * time.Second
)

var ErrCacheMiss = errors.New("layout cache miss")

// Cache keeps the last layout snapshot across restarts
type Cache interface {
	Load(ctx context.Context) (*models.LayoutSnapshot, error)
	Store(ctx context.Context, snap models.LayoutSnapshot) error
}

// NewRedisClient connects to addr. It returns nil when addr is empty or the
// server does not answer a ping, so callers run without a cache.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("layout: redis unavailable at %s, caching disabled: %v", addr, err)
		client.Close()
		return nil
	}
	return client
}

// RedisCache stores the snapshot as JSON under a single key with a TTL
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. A zero ttl uses DefaultCacheTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, key: DefaultCacheKey, ttl: ttl}
}

func (c *RedisCache) Load(ctx context.Context) (*models.LayoutSnapshot, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read layout cache: %w", err)
	}
	var snap models.LayoutSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode layout cache: %w", err)
	}
	return &snap, nil
}

func (c *RedisCache) Store(ctx context.Context, snap models.LayoutSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode layout snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write layout cache: %w", err)
	}
	return nil
}
