package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/arjunmehta/tradejournal/internal/domain/model"
)

const statsPrefix = "dashboard_stats:"

// StatsCache keeps the dashboard aggregation warm between writes.
type StatsCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewStatsCache(client *goredis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context, userID int64) (model.TradeStats, bool, error) {
	if c.client == nil {
		return model.TradeStats{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return model.TradeStats{}, false, nil
		}
		return model.TradeStats{}, false, fmt.Errorf("get cached stats: %w", err)
	}

	var stats model.TradeStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// Stale or corrupt entries behave like a miss.
		return model.TradeStats{}, false, nil
	}

	return stats, true, nil
}

func (c *StatsCache) Set(ctx context.Context, userID int64, stats model.TradeStats) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, statsKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached stats: %w", err)
	}

	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context, userID int64) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if err := c.client.Del(ctx, statsKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached stats: %w", err)
	}

	return nil
}

func statsKey(userID int64) string {
	return statsPrefix + strconv.FormatInt(userID, 10)
}
