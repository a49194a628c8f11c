package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var logger = logger_i.NewLogger("Redis Store")

type Store struct {
	client *redis.Client
	Type   int
}

// NewRedisStore connects to one of the numbered Redis databases and pings it.
func NewRedisStore(ctx context.Context, settings config.Settings, dbType int) (*Store, error) {
	addr := settings.RedisAddr
	if addr == "" {
		addr = config.RedisAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              settings.RedisPassword,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis at %s is offline: %w", addr, err)
	}

	logger.Info("Redis store ready", "addr", addr, "db", dbType)
	return &Store{client: client, Type: dbType}, nil
}

// NewStoreFromClient wraps an existing client, e.g. one pointed at miniredis.
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	logger.Info("Closing Redis store", "db", s.Type)
	return s.client.Close()
}
