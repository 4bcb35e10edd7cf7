package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shifthunter/backend/internal/config"
)

// ErrNoSession is returned when an auth token has expired or never existed.
var ErrNoSession = errors.New("auth session not found")

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

//
// Auth sessions: opaque token -> user id, TTL bound to the login cookie.
//

func keyForAuthSession(token string) string {
	return "auth:session:" + token
}

// PutAuthSession stores a login token for a user with the given TTL.
func (c *RedisCache) PutAuthSession(ctx context.Context, token string, userID uint64, ttl time.Duration) error {
	return c.Client.Set(ctx, keyForAuthSession(token), strconv.FormatUint(userID, 10), ttl).Err()
}

// GetAuthSession resolves a login token to a user id.
// Returns ErrNoSession for unknown or expired tokens.
func (c *RedisCache) GetAuthSession(ctx context.Context, token string) (uint64, error) {
	val, err := c.Client.Get(ctx, keyForAuthSession(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNoSession
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseUint(val, 10, 64)
}

// DeleteAuthSession drops a login token (logout).
func (c *RedisCache) DeleteAuthSession(ctx context.Context, token string) error {
	return c.Client.Del(ctx, keyForAuthSession(token)).Err()
}

//
// Weekly accepted-offer counter cache (DB is the fallback).
//

// KeyForWeeklyAccepted generates the Redis key for a user's
// accepted-offers-this-week count. The week start is part of the key,
// so a count cached before the Sunday rollover can never be served
// after it regardless of TTL refreshes.
func (c *RedisCache) KeyForWeeklyAccepted(userID uint64, weekStart time.Time) string {
	return fmt.Sprintf("offers:accepted:week:%d:%d", userID, weekStart.Unix())
}

// GetWeeklyAccepted returns the cached weekly count, or found=false on miss.
// Refreshes the TTL on access since the user is active.
func (c *RedisCache) GetWeeklyAccepted(ctx context.Context, userID uint64, weekStart time.Time) (count int64, found bool, err error) {
	key := c.KeyForWeeklyAccepted(userID, weekStart)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
	return n, true, nil
}

// SetWeeklyAccepted caches the weekly count with a 1h TTL.
func (c *RedisCache) SetWeeklyAccepted(ctx context.Context, userID uint64, weekStart time.Time, count int64) error {
	return c.Client.Set(ctx, c.KeyForWeeklyAccepted(userID, weekStart), count, time.Hour).Err()
}

// InvalidateWeeklyAccepted drops the cached count after a new acceptance,
// so the next status read recomputes it from the store.
func (c *RedisCache) InvalidateWeeklyAccepted(ctx context.Context, userID uint64, weekStart time.Time) error {
	return c.Client.Del(ctx, c.KeyForWeeklyAccepted(userID, weekStart)).Err()
}
