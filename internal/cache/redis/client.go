package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetToken caches an upstream bearer token until it expires.
func (c *Client) SetToken(ctx context.Context, source, token string, ttl time.Duration) error {
	err := c.client.Set(ctx, fmt.Sprintf("token:%s", source), token, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}

	logger.Debug("Token cached", zap.String("source", source), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetToken(ctx context.Context, source string) (string, bool, error) {
	token, err := c.client.Get(ctx, fmt.Sprintf("token:%s", source)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached token: %w", err)
	}
	return token, true, nil
}

// AcquireLock takes a per-key exclusive marker with a TTL. It returns
// false when another holder already has it. The TTL bounds how long a
// crashed holder can block others.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, fmt.Sprintf("lock:%s", key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if ok {
		logger.Debug("Lock acquired", zap.String("key", key), zap.Duration("ttl", ttl))
	}
	return ok, nil
}

func (c *Client) ReleaseLock(ctx context.Context, key string) error {
	err := c.client.Del(ctx, fmt.Sprintf("lock:%s", key)).Err()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
