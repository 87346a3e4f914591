// Package redis opens the Redis connection that carries run events.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes the event stream connection. Events are best-effort,
// so Enabled defaults to false and a failed connection is not fatal to
// callers that choose to continue without it.
type Config struct {
	Address     string        `env:"REDIS_ADDRESS"        yaml:"address"`
	Password    string        `env:"REDIS_PASSWORD"       yaml:"password"`
	DB          int           `env:"REDIS_DB"             yaml:"db"`
	Enabled     bool          `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT"   yaml:"dial_timeout"`
}

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	defaultDialTimeout = 2 * time.Second
	pingTimeout        = 5 * time.Second
	// A run publishes a handful of events.
	poolSize = 2
)

func (c Config) options() *redis.Options {
	dial := c.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	return &redis.Options{
		Addr:        c.Address,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: dial,
		PoolSize:    poolSize,
		MaxRetries:  1,
	}
}

// NewClient connects to cfg.Address and pings once before returning.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}
