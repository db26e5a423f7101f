package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DailyReportTTL bounds staleness of the cached report series. Rollups only
// change on task runs, so a short TTL is plenty.
const DailyReportTTL = 5 * time.Minute

// ReportCache is a Redis cache-aside layer for the daily report reads. A nil
// client turns every operation into a no-op, so the API keeps working when
// Redis is down or unconfigured.
type ReportCache struct {
	rdb *redis.Client
}

func NewReportCache(rdb *redis.Client) *ReportCache {
	return &ReportCache{rdb: rdb}
}

// GetDaily retrieves a cached report series. Returns nil on miss.
func (c *ReportCache) GetDaily(ctx context.Context, channelID string, days int) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, dailyKey(channelID, days)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetDaily stores a report series.
func (c *ReportCache) SetDaily(ctx context.Context, channelID string, days int, v interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, dailyKey(channelID, days), b, DailyReportTTL).Err()
}

func dailyKey(channelID string, days int) string {
	return fmt.Sprintf("report:daily:%s:%d", channelID, days)
}
