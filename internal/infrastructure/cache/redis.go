package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bizledger/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewClient connects to redis and pings it once.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", client.Options().Addr, err)
	}
	return client, nil
}

// Store keeps JSON encoded values in redis. A nil *Store is a valid no-op
// cache: reads miss and writes succeed.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	if client == nil {
		return nil
	}
	return &Store{client: client}
}

// Get decodes the value at key into dest and reports whether it was present.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	if s == nil {
		return false, nil
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	return s.client.Set(ctx, key, raw, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if s == nil || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
