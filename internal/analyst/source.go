package analyst

import (
	"context"
	"time"

	"mixgo/internal/market"
)

// Source 信号源统一接口。编排器只依赖本接口，不关心具体策略。
// Analyze 对单票失败必须降级为中性信号，整体 error 仅用于
// 不可恢复的输入问题。
type Source interface {
	Name() string
	Analyze(ctx context.Context, tickers []string, data market.Source, start, end time.Time) (map[string]Signal, error)
}
