package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// scriptProbe is evaluated to confirm the server runs Lua, which the marker
// store needs for atomic add and prune.
var scriptProbe = redis.NewScript(`return 1`)

// RedisChecker checks the Redis instance backing the marker store.
type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Name() string { return "redis" }

// Check pings Redis and runs a trivial script.
func (r *RedisChecker) Check(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client not configured")
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if err := scriptProbe.Run(ctx, r.client, nil).Err(); err != nil {
		return fmt.Errorf("redis scripting unavailable: %w", err)
	}
	return nil
}
