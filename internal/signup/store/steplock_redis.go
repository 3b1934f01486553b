package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"signupgate/pkg/platform/sentinel"
)

// releaseLua deletes the lock only if it still carries our token.
var releaseLua = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStepLock is a StepLock shared by every front-end instance.
type RedisStepLock struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStepLock(client redis.UniversalClient, prefix string) *RedisStepLock {
	if prefix == "" {
		prefix = "signupgate:lock"
	}
	return &RedisStepLock{redis: client, prefix: prefix}
}

func (l *RedisStepLock) key(k string) string {
	return l.prefix + ":" + k
}

func (l *RedisStepLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, l.key(key), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	if !ok {
		return nil, sentinel.ErrLocked
	}
	return func(ctx context.Context) error {
		err := releaseLua.Run(ctx, l.redis, []string{l.key(key)}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
		}
		return nil
	}, nil
}
