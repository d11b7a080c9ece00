package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// SnapshotCacheTTL bounds how stale a cached approved-link snapshot may be when
// an invalidation is missed.
const SnapshotCacheTTL = 30 * time.Second

const snapshotKey = "links:approved"

// CacheService provides a Redis cache-aside layer for the approved-link
// snapshot. Ranking is always recomputed from the snapshot per request.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// NewCacheServiceWithClient wraps an existing client. A nil client disables caching.
func NewCacheServiceWithClient(rdb *redis.Client) *CacheService {
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks and the Redis
// session store). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetLinks returns the cached approved-link snapshot. ok is false on a miss or
// when caching is disabled.
func (c *CacheService) GetLinks(ctx context.Context) (links []model.Link, ok bool, err error) {
	if c.rdb == nil {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, false, err
	}
	return links, true, nil
}

// SetLinks stores the approved-link snapshot.
func (c *CacheService) SetLinks(ctx context.Context, links []model.Link) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(links)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, snapshotKey, b, SnapshotCacheTTL).Err()
}

// InvalidateLinks drops the snapshot (called after votes, submissions and approvals).
func (c *CacheService) InvalidateLinks(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, snapshotKey).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
