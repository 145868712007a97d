package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the cache connection. Redis only backs the catalog
// read cache, so OpTimeout is kept short: a slow cache should fall through
// to Postgres rather than stall the request.
type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	ClientName string

	DialTimeout time.Duration
	OpTimeout   time.Duration
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Options converts the config into go-redis options. Zero durations keep the
// library defaults.
func (c RedisConfig) Options() *redis.Options {
	opts := &redis.Options{
		Addr:       c.Addr(),
		Password:   c.Password,
		DB:         c.DB,
		ClientName: c.ClientName,
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	if c.OpTimeout > 0 {
		opts.ReadTimeout = c.OpTimeout
		opts.WriteTimeout = c.OpTimeout
	}
	return opts
}

// NewRedisClient connects and verifies the server answers PING. The client is
// closed again when the ping fails.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(cfg.Options())
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}
