package numbering

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter keys never expire: a day's counter must keep its value for as long as numbers issued on
// that day may be reissued against it.
const redisKeyPrefix = "quote_counter:"

// RedisSequencer keeps daily counters as Redis integers.
type RedisSequencer struct {
	client *redis.Client
}

// NewRedisSequencer constructs a RedisSequencer.
func NewRedisSequencer(client *redis.Client) *RedisSequencer {
	return &RedisSequencer{client: client}
}

// Next implements Sequencer.
func (s *RedisSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	return s.client.Incr(ctx, redisKeyPrefix+day.Format("2006-01-02")).Result()
}
