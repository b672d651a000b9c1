package service

import (
	"context"
	"testing"
	"time"

	"modgraph/internal/gen"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the commands RedisCache uses on top of a map
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	cache := NewRedisCache(rdb, "mg", time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	want := &gen.Result{Source: "untyped\n", Roots: []gen.RootInfo{{NodeID: "srv", Function: "ModServer_Init"}}}
	require.NoError(t, cache.Set(ctx, "abc", want))
	assert.Contains(t, rdb.data, "mg:compile:abc")
	assert.Equal(t, time.Minute, rdb.ttls["mg:compile:abc"])

	got, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Source, got.Source)
	assert.Equal(t, "ModServer_Init", got.Roots[0].Function)
}

func TestRedisCache_DropsCorruptEntry(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["mg:compile:bad"] = "{not json"
	cache := NewRedisCache(rdb, "mg", time.Minute)

	_, ok, err := cache.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, rdb.data, "mg:compile:bad")
}
