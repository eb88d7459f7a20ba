// Package cache holds short-lived state shared between requests: the hash of
// the last provider snapshot processed per esignature.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "units:snapshot:"

// Connect initializes a Redis client from a redis:// URL or host:port.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Last(ctx context.Context, key string) (string, bool, error) {
	hash, err := d.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

func (d *RedisDeduper) Remember(ctx context.Context, key, hash string) error {
	return d.client.Set(ctx, keyPrefix+key, hash, d.ttl).Err()
}

// MemoryDeduper is the single-process fallback used when no Redis URL is
// configured.
type MemoryDeduper struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	nowFn   func() time.Time
}

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		nowFn:   time.Now,
	}
}

func (d *MemoryDeduper) Last(_ context.Context, key string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[key]
	if !ok {
		return "", false, nil
	}
	if d.ttl > 0 && !d.nowFn().Before(e.expiresAt) {
		delete(d.entries, key)
		return "", false, nil
	}
	return e.hash, true, nil
}

func (d *MemoryDeduper) Remember(_ context.Context, key, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[key] = memoryEntry{hash: hash, expiresAt: d.nowFn().Add(d.ttl)}
	return nil
}
