package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent or Redis is not
// configured.
var ErrCacheMiss = errors.New("cache miss")

// Service is a small cache-aside layer over Redis used for availability
// snapshots. It is an optimization only: a nil *Service is valid and every
// method degrades to a miss / no-op, so the booking path never depends on
// Redis being reachable.
type Service struct {
	client *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens and pings a Redis client. Explicitly constructed and passed
// by reference; there is deliberately no package-level client.
func Connect(cfg Config) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Service{client: client}, nil
}

func (s *Service) Get(ctx context.Context, key string, dest any) error {
	if s == nil {
		return ErrCacheMiss
	}

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, keys ...string) error {
	if s == nil || len(keys) == 0 {
		return nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
