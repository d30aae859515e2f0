package decision

import (
	"mixgo/internal/analyst"
)

// TradingDecision 单票单日最终决策。风控钳制后不再修改。
type TradingDecision struct {
	Action       string                    `json:"action"`
	Quantity     int                       `json:"quantity"`
	Confidence   float64                   `json:"confidence"`
	Reasoning    string                    `json:"reasoning"`
	AgentSignals map[string]analyst.Signal `json:"agent_signals,omitempty"`
}

// Actionable 是否需要落单。
func (d TradingDecision) Actionable() bool {
	return d.Action != "hold" && d.Quantity > 0
}
