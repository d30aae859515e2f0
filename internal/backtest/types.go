package backtest

import "time"

// DayValue 单个交易日收盘后的组合估值。
type DayValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PerformanceMetrics 全程估值序列推出的绩效指标。
// MaxDrawdown 为负的百分数（如 -18.18 表示 18.18% 回撤），
// MaxDrawdownDate 记录回撤前的峰值日期。
type PerformanceMetrics struct {
	SharpeRatio     float64 `json:"sharpe_ratio"`
	SortinoRatio    float64 `json:"sortino_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	MaxDrawdownDate string  `json:"max_drawdown_date,omitempty"`
}
