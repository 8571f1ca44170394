package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/models"
)

const (
	cacheKeyAll       = "schemes:all"
	cacheKeyCategory  = "schemes:category:"
	cacheKeyScheme    = "scheme:"
	popularQueriesKey = "queries:popular"
	popularScanWindow = 200
	DefaultCacheTTL   = 5 * time.Minute
)

// CachedAccessor wraps another Accessor with a Redis read-through cache. Redis failures never
// fail a fetch; the inner accessor is used instead.
type CachedAccessor struct {
	inner  Accessor
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedAccessor(inner Accessor, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedAccessor {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedAccessor{
		inner:  inner,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "corpus-cache"}),
	}
}

func (c *CachedAccessor) FetchByCategory(ctx context.Context, category string) ([]models.SchemeRecord, error) {
	key := cacheKeyCategory + strings.ToLower(category)
	return c.cachedList(ctx, key, func(ctx context.Context) ([]models.SchemeRecord, error) {
		return c.inner.FetchByCategory(ctx, category)
	})
}

func (c *CachedAccessor) FetchAll(ctx context.Context) ([]models.SchemeRecord, error) {
	return c.cachedList(ctx, cacheKeyAll, c.inner.FetchAll)
}

func (c *CachedAccessor) FetchByID(ctx context.Context, id string) (*models.SchemeRecord, error) {
	key := cacheKeyScheme + id
	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var rec models.SchemeRecord
		if err := decodeCached(data, &rec); err == nil {
			return &rec, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.warn("cache read failed", key, err)
	}

	rec, err := c.inner.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, rec)
	return rec, nil
}

// FetchPopularQueries reads the popularity sorted set and falls back to the inner accessor
// when nothing has been recorded in Redis yet.
func (c *CachedAccessor) FetchPopularQueries(ctx context.Context, prefix string) ([]string, error) {
	top, err := c.redis.ZRevRange(ctx, popularQueriesKey, 0, popularScanWindow-1).Result()
	if err != nil {
		c.warn("popularity read failed", popularQueriesKey, err)
		return c.inner.FetchPopularQueries(ctx, prefix)
	}
	if len(top) == 0 {
		return c.inner.FetchPopularQueries(ctx, prefix)
	}

	needle := strings.ToLower(prefix)
	out := make([]string, 0, DefaultPopularLimit)
	for _, q := range top {
		if strings.Contains(strings.ToLower(q), needle) {
			out = append(out, q)
			if len(out) == DefaultPopularLimit {
				break
			}
		}
	}
	return out, nil
}

// RecordQuery bumps the query in the popularity set and forwards it to the inner accessor
// when that accessor keeps its own log.
func (c *CachedAccessor) RecordQuery(ctx context.Context, query string, lang models.Language) error {
	q := strings.TrimSpace(strings.ToLower(query))
	if q == "" {
		return nil
	}
	if err := c.redis.ZIncrBy(ctx, popularQueriesKey, 1, q).Err(); err != nil {
		return fmt.Errorf("record popular query: %w", err)
	}
	if rec, ok := c.inner.(QueryRecorder); ok {
		return rec.RecordQuery(ctx, q, lang)
	}
	return nil
}

// Invalidate drops every cached scheme list and record.
func (c *CachedAccessor) Invalidate(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, "scheme*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

func (c *CachedAccessor) cachedList(ctx context.Context, key string, load func(context.Context) ([]models.SchemeRecord, error)) ([]models.SchemeRecord, error) {
	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var recs []models.SchemeRecord
		if err := decodeCached(data, &recs); err == nil {
			return recs, nil
		}
		c.warn("cache entry undecodable", key, nil)
	} else if !errors.Is(err, redis.Nil) {
		c.warn("cache read failed", key, err)
	}

	recs, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, recs)
	return recs, nil
}

func (c *CachedAccessor) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.warn("cache encode failed", key, err)
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.warn("cache write failed", key, err)
	}
}

func (c *CachedAccessor) warn(msg, key string, err error) {
	fields := map[string]interface{}{"key": key}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.logger.Warn(msg, fields)
}

// decodeCached keeps rule numbers as json.Number, matching the database adapters.
func decodeCached(data []byte, v interface{}) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	return dec.Decode(v)
}
