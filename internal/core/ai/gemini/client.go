package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"menu-planner/internal/core/ai/provider"
	"menu-planner/internal/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client Google Gemini 客戶端
type Client struct {
	client *genai.Client
	cfg    provider.Config
}

// NewClient 創建 Gemini 客戶端
func NewClient(ctx context.Context, cfg provider.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, cfg: cfg}, nil
}

// Generate 每次請求建立獨立的 GenerativeModel，system 訊息放入 SystemInstruction
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := c.client.GenerativeModel(c.cfg.Model)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	system, rest := provider.SplitMessages(req.Messages)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	parts := make([]genai.Part, 0, len(rest))
	for _, m := range rest {
		parts = append(parts, genai.Text(m.Content))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no user content in request")
	}

	common.LogDebug("Sending request to Gemini", zap.String("model", c.cfg.Model))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, fmt.Errorf("generated content is not text")
	}

	out := &provider.Response{Content: sb.String()}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// GetModel 實現 Provider 介面
func (c *Client) GetModel() string {
	return c.cfg.Model
}

// GetTimeout 實現 Provider 介面
func (c *Client) GetTimeout() time.Duration {
	return c.cfg.Timeout
}

// Close 關閉底層的 Gemini 客戶端
func (c *Client) Close() error {
	return c.client.Close()
}
