package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

// notHoliday marks a date known to be an ordinary day.
const notHoliday = "-"

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func cacheKey(d time.Time) string {
	return fmt.Sprintf("holiday_%s", domain.DateKey(d))
}

func (c *RedisCache) Lookup(ctx context.Context, dates []time.Time) (map[string]*domain.HolidayInfo, error) {
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, cacheKey(d))
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	out := make(map[string]*domain.HolidayInfo, len(dates))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s == notHoliday {
			out[domain.DateKey(dates[i])] = nil
			continue
		}
		var info domain.HolidayInfo
		if err := json.Unmarshal([]byte(s), &info); err != nil {
			// a corrupt entry is treated as a miss
			continue
		}
		out[domain.DateKey(dates[i])] = &info
	}
	return out, nil
}

func (c *RedisCache) Store(ctx context.Context, dates []time.Time, holidays map[string]*domain.HolidayInfo) error {
	pipe := c.rdb.Pipeline()
	for _, d := range dates {
		value := notHoliday
		if h, ok := holidays[domain.DateKey(d)]; ok && h != nil {
			b, err := json.Marshal(h)
			if err != nil {
				return err
			}
			value = string(b)
		}
		pipe.Set(ctx, cacheKey(d), value, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
