package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Address != "localhost:6379" || cfg.KeyPrefix != "agent:" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}

	for _, opt := range []ConfigOption{
		WithAddress("redis:6380"),
		WithPassword("secret"),
		WithDB(2),
		WithKeyPrefix("tenant-a:"),
		WithTimeouts(time.Second, 2*time.Second),
	} {
		opt(&cfg)
	}
	if cfg.Address != "redis:6380" || cfg.Password != "secret" || cfg.DB != 2 || cfg.KeyPrefix != "tenant-a:" {
		t.Errorf("options not applied: %+v", cfg)
	}
	if cfg.DialTimeout != time.Second || cfg.IOTimeout != 2*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.DialTimeout, cfg.IOTimeout)
	}
}

func TestCounterStore_prefixKey(t *testing.T) {
	t.Parallel()

	s := NewCounterStoreFromClient(nil, "agent:")
	if got := s.prefixKey("tenant:send_email"); got != "agent:ratelimit:tenant:send_email" {
		t.Errorf("prefixKey() = %q", got)
	}
}

func TestNewCounterStore_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := NewCounterStore(DefaultConfig(),
		WithAddress("127.0.0.1:1"),
		WithTimeouts(200*time.Millisecond, 200*time.Millisecond),
	)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("NewCounterStore() error = %v, want ErrConnectionFailed", err)
	}
}

func TestCounterStore_IncrementErrors(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	s := NewCounterStoreFromClient(client, "")
	defer s.Close()

	if _, _, err := s.Increment(context.Background(), "k", time.Now(), time.Minute); err == nil {
		t.Error("Increment() succeeded without a server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.Increment(ctx, "k", time.Now(), time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Increment() error = %v, want context.Canceled", err)
	}
}
