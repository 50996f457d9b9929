package cache

import (
	"context"
	"time"
)

// LayeredCache reads memory first, then Redis, and writes through to both.
type LayeredCache struct {
	l1    *MemoryCache
	l2    *RedisCache
	l1TTL time.Duration
}

// NewLayeredCache keeps L1 entries at most l1TTL so replicas converge quickly.
func NewLayeredCache(l2 *RedisCache, l1Size int, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{l1: NewMemoryCache(WithMemoryMaxSize(l1Size)), l2: l2, l1TTL: l1TTL}
}

func (lc *LayeredCache) l1Expiry(exp time.Duration) time.Duration {
	if lc.l1TTL > 0 && (exp <= 0 || exp > lc.l1TTL) {
		return lc.l1TTL
	}
	return exp
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := lc.l2.Set(ctx, key, data, expiration); err != nil {
		return err
	}
	return lc.l1.Set(ctx, key, data, lc.l1Expiry(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest any) error {
	var data []byte
	if err := lc.l1.Get(ctx, key, &data); err == nil {
		return decode(data, dest)
	}
	if err := lc.l2.Get(ctx, key, &data); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, data, lc.l1TTL)
	return decode(data, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = lc.l1.DeleteByPattern(ctx, pattern)
	return lc.l2.DeleteByPattern(ctx, pattern)
}

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
