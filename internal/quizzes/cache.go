package quizzes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaderboardKeyPrefix = "quiz:leaderboard"

// Cache wraps Redis based caching for quiz leaderboards.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func leaderboardKey(quizID int64) string {
	return fmt.Sprintf("%s:%d", leaderboardKeyPrefix, quizID)
}

// FetchLeaderboard loads a cached leaderboard or populates it using the
// loader.
func (c *Cache) FetchLeaderboard(ctx context.Context, quizID int64, loader func(context.Context) ([]LeaderboardEntry, error)) ([]LeaderboardEntry, error) {
	if loader == nil {
		return nil, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := leaderboardKey(quizID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var entries []LeaderboardEntry
		if err := json.Unmarshal(payload, &entries); err == nil {
			return entries, nil
		}
		// Corrupt payload falls through to a rebuild.
	} else if err != redis.Nil {
		return nil, err
	}
	entries, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Invalidate drops the cached leaderboard after a new attempt lands.
func (c *Cache) Invalidate(ctx context.Context, quizID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, leaderboardKey(quizID)).Err()
}
