package analyst

// 信号方向常量。risk_management 由风控经理专用。
const (
	SignalBullish        = "bullish"
	SignalBearish        = "bearish"
	SignalNeutral        = "neutral"
	SignalRiskManagement = "risk_management"
)

// Signal 单票分析结论。Confidence 取值 [0,100]；
// Reasoning 携带各子策略的指标明细，供下游拼入决策上下文。
// MaxPositionSize 仅风控信号填写，表示建议的最大买入股数。
type Signal struct {
	Signal          string         `json:"signal"`
	Confidence      float64        `json:"confidence"`
	Reasoning       map[string]any `json:"reasoning,omitempty"`
	MaxPositionSize *int           `json:"max_position_size,omitempty"`
}

// NeutralSignal 数据缺失时的兜底信号。
func NeutralSignal(reason string) Signal {
	return Signal{
		Signal:     SignalNeutral,
		Confidence: 0,
		Reasoning:  map[string]any{"error": reason},
	}
}
