package main

import (
	"context"
	"fmt"

	"menu-planner/internal/core/ai/cache"
	"menu-planner/internal/core/ai/gemini"
	"menu-planner/internal/core/ai/openrouter"
	"menu-planner/internal/core/ai/provider"
	"menu-planner/internal/core/ai/service"
	"menu-planner/internal/core/menu"
	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// newTextGenerator 依設定建立生成服務；provider 為 none 時回傳 nil，所有餐點使用備用內容
func newTextGenerator(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (menu.TextGenerator, func(), error) {
	noop := func() {}

	var p provider.Provider
	switch cfg.Generator.Provider {
	case "none":
		common.LogWarn("Generator disabled, fallback meals only")
		return nil, noop, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, provider.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Generator.Timeout,
		})
		if err != nil {
			return nil, noop, err
		}
		p = client
	default:
		if cfg.OpenRouter.APIKey == "" {
			return nil, noop, fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter generator")
		}
		p = openrouter.NewClient(provider.Config{
			APIKey:  cfg.OpenRouter.APIKey,
			Model:   cfg.OpenRouter.Model,
			Timeout: cfg.Generator.Timeout,
			BaseURL: cfg.OpenRouter.BaseURL,
		})
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		if cfg.Cache.Backend == "redis" && redisClient != nil {
			s, err := cache.NewService(redisClient, cfg.Cache.TTL)
			if err != nil {
				p.Close()
				return nil, noop, err
			}
			store = s
		} else {
			store = cache.NewManager(cfg.Cache)
		}
	}

	svc, err := service.NewService(p, store, cfg.Generator)
	if err != nil {
		p.Close()
		return nil, noop, err
	}

	common.LogInfo("Generator initialized",
		zap.String("provider", cfg.Generator.Provider),
		zap.String("model", svc.Model()),
		zap.Bool("cache_enabled", store != nil),
		zap.Int("max_concurrent", cfg.Generator.MaxConcurrent),
	)

	return svc, func() {
		if err := svc.Close(); err != nil {
			common.LogWarn("Failed to close generator", zap.Error(err))
		}
	}, nil
}
