package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menu-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service Redis 快取
type Service struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewService 以既有的 Redis 連線建立快取
func NewService(client redis.UniversalClient, ttl time.Duration) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Service{client: client, ttl: ttl}, nil
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		common.LogCacheMiss("redis")
		return "", common.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	common.LogCacheHit("redis")
	return val, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 連線由呼叫端管理
func (s *Service) Close() error {
	return nil
}
