package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/degree-audit/internal/config"
	"github.com/stemsi/degree-audit/internal/model"
)

// Cache is the part of the redis client used by CachedProvider.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// CachedProvider keeps fetched tables in redis. A cache failure never fails
// a fetch; the wrapped provider is read instead.
type CachedProvider struct {
	next Provider
	rdb  Cache
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCachedProvider(next Provider, rdb Cache, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "catalog_cache").Logger(),
	}
}

func (p *CachedProvider) Fetch(ctx context.Context, tableID string) ([]model.Course, error) {
	key := config.CacheKey.CatalogTableKey(tableID)

	raw, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var courses []model.Course
		if jsonErr := json.Unmarshal(raw, &courses); jsonErr == nil {
			return courses, nil
		}
		p.log.Warn().Str("table_id", tableID).Msg("Discarding unreadable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		p.log.Warn().Err(err).Str("table_id", tableID).Msg("Cache read failed")
	}

	courses, err := p.next.Fetch(ctx, tableID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(courses)
	if err != nil {
		return courses, nil
	}
	if err := p.rdb.Set(ctx, key, payload, p.ttl).Err(); err != nil {
		p.log.Warn().Err(err).Str("table_id", tableID).Msg("Cache write failed")
	}
	return courses, nil
}

// Invalidate drops the given tables from the cache, or every cached table
// when none are named. It returns the number of keys removed.
func (p *CachedProvider) Invalidate(ctx context.Context, tableIDs ...string) (int64, error) {
	keys := make([]string, 0, len(tableIDs))
	for _, id := range tableIDs {
		keys = append(keys, config.CacheKey.CatalogTableKey(id))
	}

	if len(keys) == 0 {
		var cursor uint64
		for {
			batch, next, err := p.rdb.Scan(ctx, cursor, config.CacheKey.CatalogTablePattern(), 100).Result()
			if err != nil {
				return 0, err
			}
			keys = append(keys, batch...)
			if next == 0 {
				break
			}
			cursor = next
		}
	}

	if len(keys) == 0 {
		return 0, nil
	}
	return p.rdb.Del(ctx, keys...).Result()
}
