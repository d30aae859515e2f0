package decision

import (
	"fmt"
	"math"

	"mixgo/internal/ai"
	"mixgo/internal/analyst"
)

// applyRiskConstraints 把推理决策钳到风控上限内：
//   - 上限为 0：强制 hold，置信度压到 30 以下
//   - 数量超限：截断并在 reasoning 里注明
//   - 实际数量不足上限一半：置信度压到 70 以下
func applyRiskConstraints(d ai.Decision, riskSignal analyst.Signal, hasRisk bool) ai.Decision {
	if !hasRisk || d.Action == "hold" {
		return d
	}

	maxPosition := 0
	if riskSignal.MaxPositionSize != nil {
		maxPosition = *riskSignal.MaxPositionSize
	}

	if d.Quantity > maxPosition {
		original := d.Quantity
		d.Quantity = maxPosition
		d.Reasoning += fmt.Sprintf(
			" [Risk-adjusted from %d to %d shares based on Kelly Criterion and portfolio limits]",
			original, maxPosition)
	}

	if maxPosition == 0 {
		d.Action = "hold"
		d.Quantity = 0
		d.Confidence = math.Min(d.Confidence, 30.0)
		d.Reasoning += " [Position blocked by risk management - insufficient risk budget]"
	} else if float64(d.Quantity) < float64(maxPosition)*0.5 {
		d.Confidence = math.Min(d.Confidence, 70.0)
	}

	return d
}
