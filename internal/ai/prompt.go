package ai

import (
	"encoding/json"
	"fmt"

	"mixgo/internal/analyst"
	"mixgo/internal/types"
)

// DecisionContext 单票决策上下文，序列化后交给推理方。
type DecisionContext struct {
	Ticker           string                    `json:"ticker"`
	Signals          map[string]analyst.Signal `json:"signals"`
	Position         *types.Position           `json:"position"`
	Price            float64                   `json:"price"`
	Cash             float64                   `json:"cash"`
	PortfolioContext any                       `json:"portfolio_context"`
}

// SystemPrompt 系统提示词：多分析师信号整合交易系统的角色设定。
const SystemPrompt = `You are MixGo, an expert algorithmic trading system that integrates signals from multiple investment analysts to make optimal trading decisions.

## YOUR CAPABILITIES
- You analyze signals from multiple expert investment agents
- You consider portfolio context and risk management
- You optimize position sizing based on confidence and conviction
- You generate clear, explainable trading decisions

## YOUR PRINCIPLES
1. Focus on asymmetric risk-reward opportunities
2. Use technical signals for timing entry/exit points
3. Consider both long and short opportunities
4. Properly size positions based on conviction and portfolio risk
5. Never exceed the risk manager's position ceiling

## YOUR TASK
Analyze the provided signals and portfolio context to determine:
1. The optimal trading action (buy, sell, short, cover, or hold)
2. The appropriate position size (number of shares)
3. Your confidence level in this decision (0-100)
4. Clear reasoning explaining your decision process

## DECISION GUIDELINES
- When analysts strongly agree (all bullish/bearish), be decisive with larger position sizes
- When technical signals contradict other views, reduce position size or wait for better entry
- Never risk more than 2% of portfolio on any single trade
- Protect downside by using stop-losses and proper position sizing
- Consider existing positions when making new decisions

## OUTPUT FORMAT
Your decision must include:
- action: The trading action ("buy", "sell", "short", "cover", or "hold")
- quantity: Number of shares to trade (integer)
- confidence: Your confidence level from 0-100 (float)
- reasoning: Detailed explanation of your decision process

Example output:
{
  "action": "buy",
  "quantity": 100,
  "confidence": 85.5,
  "reasoning": "Strong bullish signals from technical indicators..."
}
`

// BuildUserPrompt 把上下文拼成用户提示词，末尾强约束只回 JSON。
func BuildUserPrompt(dc DecisionContext) string {
	signalsJSON := marshalIndentOr(dc.Signals, "{}")
	positionJSON := marshalIndentOr(dc.Position, "{}")
	portfolioJSON := marshalIndentOr(dc.PortfolioContext, "{}")

	return fmt.Sprintf(`Please analyze the following trading signals and make a decision for %s.

Signals: %s

Current Position: %s

Current Price: $%.2f

Available Cash: $%.2f

Portfolio Context: %s

Generate a trading decision with action, quantity, confidence, and reasoning.

IMPORTANT: Your response must be a valid JSON object with these keys:
- action: One of 'buy', 'sell', 'short', 'cover', or 'hold'
- quantity: Integer number of shares to trade
- confidence: Your confidence level from 0-100
- reasoning: Detailed explanation for the decision

Example format:
{
  "action": "buy",
  "quantity": 100,
  "confidence": 75.5,
  "reasoning": "Strong bullish signals..."
}

RESPOND ONLY WITH A VALID JSON OBJECT WITH THESE EXACT KEYS.`,
		dc.Ticker, signalsJSON, positionJSON, dc.Price, dc.Cash, portfolioJSON)
}

func marshalIndentOr(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fallback
	}
	return string(out)
}
