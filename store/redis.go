package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementLua bumps a counter and starts its TTL on first touch, as one
// atomic script. ARGV[1] is the TTL in milliseconds.
const incrementLua = `
	local current = redis.call("INCR", KEYS[1])
	if tonumber(current) == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return current
`

// Redis is a Store backed by a shared Redis instance, for deployments
// where multiple application replicas must enforce one budget per caller.
//
// Records are plain string values written with SET PX, so Get/Put carry
// the same non-atomic read-then-write caveat as any Store. Increment runs
// a pre-compiled Lua script and is atomic.
type Redis struct {
	client          *redis.Client
	incrementScript *redis.Script
}

// NewRedis creates a Redis store around an existing client. The client's
// timeout and retry policy apply to every call; the store adds none of
// its own.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client:          client,
		incrementScript: redis.NewScript(incrementLua),
	}
}

// Get implements Store.
func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put implements Store.
func (s *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Increment implements Incrementer via the atomic Lua script.
func (s *Redis) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	res, err := s.incrementScript.Run(ctx, s.client, []string{key}, ttl.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	count, ok := res.(int64)
	if !ok {
		return 0, errors.New("store: unexpected increment script reply")
	}
	return count, nil
}

var (
	_ Store       = (*Redis)(nil)
	_ Incrementer = (*Redis)(nil)
)
