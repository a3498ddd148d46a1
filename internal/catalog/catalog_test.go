package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/degree-audit/internal/model"
)

func TestNormalizeCourses(t *testing.T) {
	got := NormalizeCourses([]model.Course{
		{Code: "cscs 201", Name: "data   structures", Credits: 3},
		{Code: "CSCS-101", Name: "intro to programming", Credits: 4},
		{Code: "CSCS201", Name: "duplicate", Credits: 1},
		{Code: " - ", Name: "no code"},
	})

	assert.Equal(t, []model.Course{
		{Code: "CSCS101", Name: "Intro To Programming", Credits: 4},
		{Code: "CSCS201", Name: "Data Structures", Credits: 3},
	}, got)
}

func TestMemoryProviderFetch(t *testing.T) {
	p := NewMemoryProvider(map[string][]model.Course{
		"corecourses": {{Code: "cscs101", Name: "intro"}},
		"empty":       {},
	})
	ctx := context.Background()

	courses, err := p.Fetch(ctx, "corecourses")
	require.NoError(t, err)
	assert.Equal(t, []model.Course{{Code: "CSCS101", Name: "Intro"}}, courses)

	courses, err = p.Fetch(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, courses)

	_, err = p.Fetch(ctx, "missing")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestMemoryProviderCancelledContext(t *testing.T) {
	p := NewMemoryProvider(map[string][]model.Course{"t": {}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Fetch(ctx, "t")
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "t", se.TableID)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMemoryProviderReturnsCopy(t *testing.T) {
	p := NewMemoryProvider(map[string][]model.Course{"t": {{Code: "A1"}}})
	first, _ := p.Fetch(context.Background(), "t")
	first[0].Code = "MUTATED"

	second, _ := p.Fetch(context.Background(), "t")
	assert.Equal(t, "A1", second[0].Code)
}

func TestLoadYAML(t *testing.T) {
	p, err := LoadYAML(strings.NewReader(`
tables:
  electives:
    - {code: cscs 310, name: operating systems, credits: 3}
    - {code: CSCS320, name: Networks, credits: 3}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"electives"}, p.TableIDs())

	courses, err := p.Fetch(context.Background(), "electives")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "CSCS310", courses[0].Code)
	assert.Equal(t, "Operating Systems", courses[0].Name)
}

// fakeCache is an in-memory stand-in for the redis client.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
	failSet bool
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return redis.NewStatusResult("", errors.New("read only replica"))
	}
	f.sets++
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeCache) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

type countingProvider struct {
	Provider
	calls int
}

func (c *countingProvider) Fetch(ctx context.Context, tableID string) ([]model.Course, error) {
	c.calls++
	return c.Provider.Fetch(ctx, tableID)
}

func TestCachedProviderServesFromCache(t *testing.T) {
	inner := &countingProvider{Provider: NewMemoryProvider(map[string][]model.Course{
		"corecourses": {{Code: "CSCS101", Name: "Intro", Credits: 3}},
	})}
	cache := newFakeCache()
	p := NewCachedProvider(inner, cache, time.Hour, zerolog.Nop())
	ctx := context.Background()

	first, err := p.Fetch(ctx, "corecourses")
	require.NoError(t, err)
	second, err := p.Fetch(ctx, "corecourses")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Contains(t, cache.data, "catalog:table:corecourses")
}

func TestCachedProviderDoesNotCacheMissingTable(t *testing.T) {
	cache := newFakeCache()
	p := NewCachedProvider(NewMemoryProvider(nil), cache, time.Hour, zerolog.Nop())

	_, err := p.Fetch(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrTableNotFound))
	assert.Zero(t, cache.sets)
}

func TestCachedProviderFallsThroughOnCacheFailure(t *testing.T) {
	inner := &countingProvider{Provider: NewMemoryProvider(map[string][]model.Course{
		"t": {{Code: "A100"}},
	})}
	cache := newFakeCache()
	cache.failGet = true
	cache.failSet = true
	p := NewCachedProvider(inner, cache, time.Hour, zerolog.Nop())

	for i := 0; i < 2; i++ {
		courses, err := p.Fetch(context.Background(), "t")
		require.NoError(t, err)
		assert.Equal(t, []model.Course{{Code: "A100"}}, courses)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProviderInvalidate(t *testing.T) {
	cache := newFakeCache()
	cache.data["catalog:table:a"] = "[]"
	cache.data["catalog:table:b"] = "[]"
	cache.data["ratelimit:other"] = "1"
	p := NewCachedProvider(NewMemoryProvider(nil), cache, time.Hour, zerolog.Nop())
	ctx := context.Background()

	n, err := p.Invalidate(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = p.Invalidate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, map[string]string{"ratelimit:other": "1"}, cache.data)
}
