// Package cache owns the Redis connection used for confirmation codes and
// rate limiting. Without a configured address an embedded miniredis is
// started, so a single binary runs with no external services.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/yamdb/api-yamdb/logger"
)

var (
	client    *redis.Client
	miniRedis *miniredis.Miniredis
)

// InitRedis connects to addr, or starts an embedded server when addr is empty.
func InitRedis(addr, password string) (*redis.Client, error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		miniRedis = mr
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		logger.Info("embedded Redis started on ", mr.Addr())
		return client, nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		client = nil
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logger.Info("connected to Redis at ", addr)
	return client, nil
}

func GetClient() *redis.Client {
	return client
}

func IsEmbedded() bool {
	return miniRedis != nil
}

// Close closes the client and stops the embedded server if one is running.
func Close() error {
	var err error
	if client != nil {
		err = client.Close()
		client = nil
	}
	if miniRedis != nil {
		miniRedis.Close()
		miniRedis = nil
	}
	return err
}
