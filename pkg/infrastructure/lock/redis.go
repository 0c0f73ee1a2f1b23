package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a PlanLocker backed by SET NX PX. It is best effort: the plan_runs
// unique constraint remains the authoritative guard.
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker wraps an existing client
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

var _ repositories.PlanLocker = (*RedisLocker)(nil)

// NewRedis creates and validates a go-redis client connection
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Acquire sets key to a fresh token if it is absent
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (repositories.ReleaseFunc, error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, apperrors.ErrInternal("failed to acquire plan lock").Wrap(err)
	}
	if !ok {
		return nil, apperrors.ErrConflict(fmt.Sprintf("planning already in progress for %s", key)).
			WithDetail("lock", key)
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release plan lock %s: %w", key, err)
		}
		return nil
	}, nil
}
