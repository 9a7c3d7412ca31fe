package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/domain/queue"
)

const queueCounterPrefix = "queue:counter:"

// Raises the counter to the persisted floor before incrementing so that a
// flushed or expired key never hands out a position already stored.
// KEYS[1] = counter key, ARGV[1] = floor, ARGV[2] = ttl seconds
var nextPositionScript = redis.NewScript(`
local floor = tonumber(ARGV[1])
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current < floor then
    redis.call("SET", KEYS[1], floor)
end
local next = redis.call("INCR", KEYS[1])
redis.call("EXPIRE", KEYS[1], tonumber(ARGV[2]))
return next
`)

// RedisQueueCounter implements QueueCounter with a Lua-scripted Redis counter
type RedisQueueCounter struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisQueueCounter creates a new Redis-backed queue counter
func NewRedisQueueCounter(client redis.UniversalClient, ttl time.Duration) providers.QueueCounter {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisQueueCounter{client: client, ttl: ttl}
}

// QueueCounterKey returns the Redis key of a window counter
func QueueCounterKey(window queue.Window) string {
	return queueCounterPrefix + window.Key()
}

// Next returns the next position of the window, always greater than floor
func (c *RedisQueueCounter) Next(ctx context.Context, window queue.Window, floor int) (int, error) {
	if floor < 0 {
		floor = 0
	}
	next, err := nextPositionScript.Run(ctx, c.client,
		[]string{QueueCounterKey(window)},
		floor, int(c.ttl.Seconds()),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to draw queue position: %w", err)
	}
	return next, nil
}
