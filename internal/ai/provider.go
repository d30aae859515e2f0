package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"mixgo/internal/logger"
)

// Provider 对话式推理服务的最小抽象。
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIConfig OpenAI 兼容端点配置。BaseURL 为空用官方默认。
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxRetries  int     `toml:"max_retries"`
}

// OpenAIProvider 走 OpenAI 兼容 chat 接口的推理方。
// 429 指数退避重试，最多 MaxRetries 次后放弃。
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxRetries  int
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("缺少推理服务 api key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("缺少推理模型名")
	}
	ocfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		ocfg.BaseURL = cfg.BaseURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(ocfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxRetries:  maxRetries,
	}, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Second*time.Duration(1<<(attempt-1)) +
				time.Duration(rand.Int63n(int64(500*time.Millisecond)))
			logger.Infof("推理服务限流，第 %d/%d 次重试，等待 %s", attempt, p.maxRetries, wait)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if isRateLimited(err) {
				continue
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("推理服务返回空 choices")
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("推理服务限流重试耗尽: %w", lastErr)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	return strings.Contains(err.Error(), "429")
}
