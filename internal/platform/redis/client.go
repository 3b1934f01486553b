package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"signupgate/internal/platform/config"
)

// Client wraps the go-redis client. LockPrefix namespaces the step lock keys
// so several deployments can share one Redis.
type Client struct {
	*redis.Client
	LockPrefix string
}

// New creates a Redis client from cfg. Returns nil, nil when no URL is
// configured so callers can fall back to in-memory step locks.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client, LockPrefix: strings.TrimRight(cfg.LockPrefix, ":")}, nil
}

// Health is registered under "redis" in the /healthz checks.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
