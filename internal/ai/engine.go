package ai

import (
	"context"

	"mixgo/internal/logger"
)

const defaultMaxAttempts = 3

// Engine 决策引擎：调推理方、解析校验、失败兜底。
// 限流重试在 Provider 内部处理，这里只管解析轮次。
type Engine struct {
	provider    Provider
	maxAttempts int
}

func NewEngine(provider Provider) *Engine {
	return &Engine{provider: provider, maxAttempts: defaultMaxAttempts}
}

// Decide 对单票上下文产出决策。maxAttempts 轮调用加解析全部失败
// 后返回确定性兜底 {hold, 0, 50}，绝不向上抛错。
func (e *Engine) Decide(ctx context.Context, dc DecisionContext) Decision {
	userPrompt := BuildUserPrompt(dc)

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		raw, err := e.provider.Complete(ctx, SystemPrompt, userPrompt)
		if err != nil {
			logger.Warnf("推理调用失败 %s（第 %d/%d 次）: %v", dc.Ticker, attempt, e.maxAttempts, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		decision, err := ParseDecision(raw)
		if err != nil {
			logger.Warnf("决策解析失败 %s（第 %d/%d 次）: %v", dc.Ticker, attempt, e.maxAttempts, err)
			continue
		}
		return decision
	}

	logger.Errorf("推理兜底生效 %s: 返回 hold", dc.Ticker)
	return FallbackDecision("Error in analysis; defaulting to hold")
}
