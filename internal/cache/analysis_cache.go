package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/telemetry"
)

const keyPrefix = "analysis:"

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// AnalysisCache stores JSON-encoded analysis responses in Redis. Keys embed
// the dataset version, so a reload never serves responses computed from the
// previous dataset. A nil *AnalysisCache is valid and always computes.
type AnalysisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	mu    sync.Mutex
	stats CacheStats
}

// NewAnalysisCache creates a Redis-backed analysis cache
func NewAnalysisCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *AnalysisCache {
	return &AnalysisCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// Key builds a cache key scoped to a dataset version.
func Key(version string, parts ...string) string {
	return keyPrefix + version + ":" + strings.Join(parts, ":")
}

// Fetch returns the cached JSON for key, or runs compute, stores the encoded
// result and returns it. Errors from compute are returned and never cached.
// Redis failures are logged and treated as a miss.
func (c *AnalysisCache) Fetch(ctx context.Context, key string, compute func() (interface{}, error)) ([]byte, error) {
	if c == nil {
		value, err := compute()
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.GetCacheTracer(), telemetry.SpanCacheFetch)
	defer span.End()

	data, err := c.redis.Get(ctx, key).Bytes()
	telemetry.SetSpanAttributes(span, telemetry.CacheAttributes(key, err == nil)...)
	switch {
	case err == nil:
		c.record(func(s *CacheStats) { s.Hits++ })
		return data, nil
	case errors.Is(err, redis.Nil):
		c.record(func(s *CacheStats) { s.Misses++ })
	default:
		c.record(func(s *CacheStats) { s.Misses++; s.Errors++ })
		c.logger.WithError(err).WithField("key", key).Warn("Redis error reading analysis cache")
	}

	value, err := compute()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	data, err = json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.record(func(s *CacheStats) { s.Errors++ })
		c.logger.WithError(err).WithField("key", key).Warn("Redis error writing analysis cache")
		return data, nil
	}
	c.record(func(s *CacheStats) { s.Sets++ })
	return data, nil
}

// Clear removes every analysis entry.
func (c *AnalysisCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}
	c.logger.WithField("entries", len(keys)).Info("Cleared analysis cache")
	return nil
}

// GetStats returns current cache statistics
func (c *AnalysisCache) GetStats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// LogStats logs current cache performance statistics
func (c *AnalysisCache) LogStats() {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	c.logger.WithFields(logrus.Fields{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"errors":   stats.Errors,
		"hit_rate": fmt.Sprintf("%.2f%%", hitRate),
	}).Info("Analysis cache stats")
}

func (c *AnalysisCache) record(update func(*CacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}
