package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modgraph/internal/gen"
	"modgraph/pkg"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// CompileCache stores compile results by graph hash
type CompileCache interface {
	Get(ctx context.Context, hash string) (*gen.Result, bool, error)
	Set(ctx context.Context, hash string, result *gen.Result) error
}

// LRUCache is an in-process cache bounded by entry count and age
type LRUCache struct {
	lru *expirable.LRU[string, *gen.Result]
}

func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1
	}
	return &LRUCache{lru: expirable.NewLRU[string, *gen.Result](size, nil, ttl)}
}

func (slf *LRUCache) Get(_ context.Context, hash string) (*gen.Result, bool, error) {
	result, ok := slf.lru.Get(hash)
	return result, ok, nil
}

func (slf *LRUCache) Set(_ context.Context, hash string, result *gen.Result) error {
	slf.lru.Add(hash, result)
	return nil
}

func (slf *LRUCache) Len() int {
	return slf.lru.Len()
}

// RedisCache shares compile results between instances
type RedisCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (slf *RedisCache) key(hash string) string {
	return fmt.Sprintf("%s:compile:%s", slf.prefix, hash)
}

func (slf *RedisCache) Get(ctx context.Context, hash string) (*gen.Result, bool, error) {
	var result gen.Result
	if err := pkg.RedisGet(ctx, slf.rdb, slf.key(hash), &result); err != nil {
		if pkg.IsRedisNil(err) {
			return nil, false, nil
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			// unreadable entry, drop it so the next compile replaces it
			return nil, false, pkg.RedisDelete(ctx, slf.rdb, slf.key(hash))
		}
		return nil, false, err
	}
	return &result, true, nil
}

func (slf *RedisCache) Set(ctx context.Context, hash string, result *gen.Result) error {
	return pkg.RedisSet(ctx, slf.rdb, slf.key(hash), result, slf.ttl)
}

// TieredCache consults its levels in order and back-fills the faster levels
// on a hit further down.
type TieredCache []CompileCache

func (slf TieredCache) Get(ctx context.Context, hash string) (*gen.Result, bool, error) {
	for i, level := range slf {
		result, ok, err := level.Get(ctx, hash)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		for j := 0; j < i; j++ {
			if err = slf[j].Set(ctx, hash, result); err != nil {
				return result, true, err
			}
		}
		return result, true, nil
	}
	return nil, false, nil
}

func (slf TieredCache) Set(ctx context.Context, hash string, result *gen.Result) error {
	for _, level := range slf {
		if err := level.Set(ctx, hash, result); err != nil {
			return err
		}
	}
	return nil
}
