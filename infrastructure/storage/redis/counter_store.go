package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrConnectionFailed indicates the server could not be reached.
var ErrConnectionFailed = errors.New("redis: connection failed")

// incrementScript bumps a counter, starts its window on the first hit and
// returns the count with the remaining window in milliseconds.
var incrementScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// CounterStore keeps fixed-window counters in Redis so rate limits hold
// across processes. Windows expire server-side.
type CounterStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewCounterStore connects to Redis and verifies the connection.
func NewCounterStore(cfg Config, opts ...ConfigOption) (*CounterStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.IOTimeout,
		WriteTimeout: cfg.IOTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return NewCounterStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewCounterStoreFromClient wraps an existing client.
func NewCounterStoreFromClient(client *redis.Client, keyPrefix string) *CounterStore {
	return &CounterStore{client: client, keyPrefix: keyPrefix}
}

func (s *CounterStore) prefixKey(key string) string {
	return s.keyPrefix + "ratelimit:" + key
}

// Increment bumps the counter for key and returns the new count and the end
// of its window, measured from now.
func (s *CounterStore) Increment(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}
	if window < time.Millisecond {
		window = time.Millisecond
	}

	vals, err := incrementScript.Run(ctx, s.client, []string{s.prefixKey(key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: increment %s: %w", key, err)
	}
	if len(vals) != 2 {
		return 0, time.Time{}, fmt.Errorf("redis: increment %s: unexpected reply %v", key, vals)
	}
	return int(vals[0]), now.Add(time.Duration(vals[1]) * time.Millisecond), nil
}

// Reset removes the counter for key.
func (s *CounterStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefixKey(key)).Err()
}

// Close closes the client.
func (s *CounterStore) Close() error {
	return s.client.Close()
}
