package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menu-planner/internal/core/ai/cache"
	"menu-planner/internal/core/ai/provider"
	"menu-planner/internal/infrastructure/config"
	"menu-planner/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Service 文字生成服務：限制同時請求數，並可選擇性快取結果
type Service struct {
	provider    provider.Provider
	cache       cache.Store
	sem         *semaphore.Weighted
	temperature float64
	maxTokens   int
}

// NewService 創建生成服務；store 可為 nil
func NewService(p provider.Provider, store cache.Store, cfg config.GeneratorConfig) (*Service, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is required")
	}
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	return &Service{
		provider:    p,
		cache:       store,
		sem:         semaphore.NewWeighted(int64(limit)),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// GenerateText 送出 system 與 user 訊息並回傳模型輸出的原始文字
func (s *Service) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", common.ErrAIServiceBusy.Wrap(err)
	}
	defer s.sem.Release(1)

	key := cache.Key(s.provider.GetModel(), systemPrompt, userPrompt)
	if s.cache != nil {
		val, err := s.cache.Get(ctx, key)
		if err == nil && val != "" {
			return val, nil
		}
		if err != nil && !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取快取失敗", zap.Error(err))
		}
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: systemPrompt},
			{Role: provider.RoleUser, Content: userPrompt},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	common.LogAICall(s.provider.GetModel(), time.Since(start), err)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp.Content); err != nil {
			common.LogWarn("寫入快取失敗", zap.Error(err))
		}
	}
	return resp.Content, nil
}

// Model 目前使用的模型
func (s *Service) Model() string {
	return s.provider.GetModel()
}

// Close 關閉提供者與快取
func (s *Service) Close() error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	errs = append(errs, s.provider.Close())
	return errors.Join(errs...)
}
