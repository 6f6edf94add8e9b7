package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenmark/notes-service/internal/domain"
)

// StatsCache holds short-lived per-owner note statistics. A miss is not an
// error; callers fall back to the store.
type StatsCache interface {
	Get(ctx context.Context, ownerID string) (*domain.NoteStats, error)
	Set(ctx context.Context, ownerID string, stats *domain.NoteStats) error
	Invalidate(ctx context.Context, ownerID string) error
}

// ErrCacheMiss signals an absent or expired cache entry.
var ErrCacheMiss = errors.New("stats cache miss")

const statsCacheTTL = 60 * time.Second

type redisStatsCache struct {
	client *redis.Client
}

// NewStatsCache returns a Redis-backed stats cache.
func NewStatsCache(client *redis.Client) StatsCache {
	return &redisStatsCache{client: client}
}

func statsKey(ownerID string) string {
	return fmt.Sprintf("notes:stats:%s", ownerID)
}

func (c *redisStatsCache) Get(ctx context.Context, ownerID string) (*domain.NoteStats, error) {
	payload, err := c.client.Get(ctx, statsKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var stats domain.NoteStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, ErrCacheMiss
	}
	return &stats, nil
}

func (c *redisStatsCache) Set(ctx context.Context, ownerID string, stats *domain.NoteStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(ownerID), payload, statsCacheTTL).Err()
}

func (c *redisStatsCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, statsKey(ownerID)).Err()
}
