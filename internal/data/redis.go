package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobquality/internal/biz"
	"jobquality/internal/conf"
	"jobquality/internal/pkg/bloom"
	pkgredis "jobquality/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
	redis "github.com/redis/go-redis/v9"
)

// NewRedisCache creates a new Redis cache from configuration.
func NewRedisCache(c *conf.Data, logger log.Logger) (pkgredis.Cache, func(), error) {
	helper := log.NewHelper(logger)

	opts := &redis.Options{
		Addr:         c.Redis.Addr,
		Network:      c.Redis.Network,
		ReadTimeout:  c.Redis.ReadTimeoutDuration(),
		WriteTimeout: c.Redis.WriteTimeoutDuration(),
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		helper.Errorf("failed to connect to Redis at %s: %v", c.Redis.Addr, err)
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	helper.Infof("connected to Redis at %s", c.Redis.Addr)

	cache := NewRedisWrapper(client)
	cleanup := func() {
		helper.Info("closing Redis connection")
		client.Close()
	}

	return cache, cleanup, nil
}

// RedisWrapper wraps redis.Client to implement pkgredis.Cache interface.
type RedisWrapper struct {
	client *redis.Client
}

// NewRedisWrapper creates a new RedisWrapper.
func NewRedisWrapper(client *redis.Client) *RedisWrapper {
	return &RedisWrapper{client: client}
}

func (r *RedisWrapper) SetString(ctx context.Context, key, value string, exp time.Duration) error {
	return r.client.Set(ctx, key, value, exp).Err()
}

func (r *RedisWrapper) GetString(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisWrapper) SetBytes(ctx context.Context, key string, value []byte, exp time.Duration) error {
	return r.client.Set(ctx, key, value, exp).Err()
}

func (r *RedisWrapper) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return r.client.Get(ctx, key).Bytes()
}

func (r *RedisWrapper) SetNX(ctx context.Context, key, value string, exp time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, exp).Result()
}

func (r *RedisWrapper) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	return count > 0, err
}

func (r *RedisWrapper) ScriptRun(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	conn := r.client.Conn()
	defer conn.Close()
	return script.Run(ctx, conn, keys, args...).Result()
}

func (r *RedisWrapper) Del(ctx context.Context, keys ...string) (int64, error) {
	return r.client.Del(ctx, keys...).Result()
}

func (r *RedisWrapper) Expire(ctx context.Context, key string, seconds int) (bool, error) {
	return r.client.Expire(ctx, key, time.Duration(seconds)*time.Second).Result()
}

// NewDictionaryPrefilter creates the bloom prefilter over dictionary
// phrase words.
func NewDictionaryPrefilter(cache pkgredis.Cache, c *conf.Engine) *bloom.Filter {
	key, bits, hashes := c.Bloom()
	return bloom.New(cache, key, bits, hashes)
}

const filterCacheTTL = 30 * time.Second

type filterCache struct {
	cache pkgredis.Cache
}

// NewFilterCache new a per-user active filter cache backed by redis.
func NewFilterCache(cache pkgredis.Cache) biz.FilterCache {
	return &filterCache{cache: cache}
}

func filterCacheKey(userID string) string {
	return "jobquality:filters:" + userID
}

func (c *filterCache) Get(ctx context.Context, userID string) ([]int64, bool, error) {
	raw, err := c.cache.GetBytes(ctx, filterCacheKey(userID))
	if errors.Is(err, pkgredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (c *filterCache) Set(ctx context.Context, userID string, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.cache.SetBytes(ctx, filterCacheKey(userID), raw, filterCacheTTL)
}

func (c *filterCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.cache.Del(ctx, filterCacheKey(userID))
	return err
}

type runLocker struct {
	cache pkgredis.Cache
}

// NewRunLocker new a redis-backed run locker for the aggregator.
func NewRunLocker(cache pkgredis.Cache) biz.RunLocker {
	return &runLocker{cache: cache}
}

func (l *runLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.cache.SetNX(ctx, key, "1", ttl)
}

func (l *runLocker) Unlock(ctx context.Context, key string) error {
	_, err := l.cache.Del(ctx, key)
	return err
}
