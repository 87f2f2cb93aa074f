package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const RateLimitKeyPrefix = "ratelimit:join"

// Fixed-window counter: first INCR in a window sets the expiry, so count
// and TTL move atomically.
var rateLimitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n`)

// RateLimitRepository is the shared-store limiter: counts survive process
// restarts and are seen by every server instance.
type RateLimitRepository struct {
	RDB    *redis.Client
	Limit  int
	Window time.Duration
}

func NewRateLimitRepository(rdb *redis.Client, limit int, window time.Duration) *RateLimitRepository {
	return &RateLimitRepository{RDB: rdb, Limit: limit, Window: window}
}

// Allow consumes one attempt for the wallet and reports whether it stayed
// within the window's budget.
func (r *RateLimitRepository) Allow(ctx context.Context, wallet string) (bool, error) {
	key := fmt.Sprintf("%s:%s", RateLimitKeyPrefix, wallet)
	n, err := rateLimitScript.Run(ctx, r.RDB, []string{key}, r.Window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(r.Limit), nil
}
