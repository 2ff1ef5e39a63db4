// Package redis keeps rate limit windows in Redis so limits hold across
// processes.
package redis

import "time"

// Config locates a Redis server and bounds how long calls to it may take.
type Config struct {
	Address  string
	Password string
	DB       int
	// KeyPrefix namespaces every key the store writes.
	KeyPrefix string

	DialTimeout time.Duration
	// IOTimeout bounds each read and write.
	IOTimeout  time.Duration
	MaxRetries int
	PoolSize   int
}

// DefaultConfig targets a local server.
func DefaultConfig() Config {
	return Config{
		Address:     "localhost:6379",
		KeyPrefix:   "agent:",
		DialTimeout: 5 * time.Second,
		IOTimeout:   3 * time.Second,
		MaxRetries:  3,
		PoolSize:    10,
	}
}

// ConfigOption adjusts a Config.
type ConfigOption func(*Config)

func WithAddress(addr string) ConfigOption {
	return func(c *Config) { c.Address = addr }
}

func WithPassword(password string) ConfigOption {
	return func(c *Config) { c.Password = password }
}

func WithDB(db int) ConfigOption {
	return func(c *Config) { c.DB = db }
}

func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) { c.KeyPrefix = prefix }
}

// WithTimeouts sets the dial timeout and the per-operation timeout.
func WithTimeouts(dial, io time.Duration) ConfigOption {
	return func(c *Config) {
		c.DialTimeout = dial
		c.IOTimeout = io
	}
}
