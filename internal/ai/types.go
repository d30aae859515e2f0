package ai

// 中文说明：
// 推理协作方的输出契约。引擎只认这个结构，解析失败一律走兜底。

// Decision 推理方返回的结构化交易决策。
type Decision struct {
	Action     string  `json:"action"`
	Quantity   int     `json:"quantity"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// FallbackDecision 持续解析失败后的确定性兜底。
func FallbackDecision(reason string) Decision {
	if reason == "" {
		reason = "Error in analysis; defaulting to hold"
	}
	return Decision{
		Action:     "hold",
		Quantity:   0,
		Confidence: 50,
		Reasoning:  reason,
	}
}

// ValidActions 动作白名单。
var ValidActions = []string{"buy", "sell", "short", "cover", "hold"}
