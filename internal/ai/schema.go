package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"mixgo/internal/pkg/jsonutil"
)

// 决策输出的严格 schema。校验失败后允许一轮 gjson 字段修复，
// 再失败交给上层兜底。

const decisionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "action": {
      "type": "string",
      "enum": ["buy", "sell", "short", "cover", "hold"]
    },
    "quantity": {"type": "integer", "minimum": 0},
    "confidence": {"type": "number", "minimum": 0, "maximum": 100},
    "reasoning": {"type": "string"}
  },
  "required": ["action", "quantity", "confidence", "reasoning"]
}`

var decisionSchema = jsonschema.MustCompileString("decision.json", decisionSchemaJSON)

// ParseDecision 从原始回复中恢复决策：
//  1. 提取 JSON（围栏、裸对象都认）
//  2. schema 严格校验
//  3. 校验失败做一轮字段矫正（字符串数字、大小写、越界截断）再校验
func ParseDecision(raw string) (Decision, error) {
	payload, ok := jsonutil.ExtractJSON(raw)
	if !ok {
		return Decision{}, fmt.Errorf("回复中未找到 JSON 对象")
	}

	if d, err := validateAndDecode(payload); err == nil {
		return d, nil
	}

	repaired, err := coerceDecisionFields(payload)
	if err != nil {
		return Decision{}, err
	}
	return validateAndDecode(repaired)
}

func validateAndDecode(payload string) (Decision, error) {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return Decision{}, fmt.Errorf("json 解析失败: %w", err)
	}
	if err := decisionSchema.Validate(v); err != nil {
		return Decision{}, fmt.Errorf("schema 校验失败: %w", err)
	}
	var d Decision
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return Decision{}, err
	}
	return d, nil
}

// coerceDecisionFields 用 gjson 做宽松读取后重建规范 JSON。
func coerceDecisionFields(payload string) (string, error) {
	if !gjson.Valid(payload) {
		return "", fmt.Errorf("json 格式无效，无法矫正")
	}
	parsed := gjson.Parse(payload)

	action := strings.ToLower(strings.TrimSpace(parsed.Get("action").String()))
	if !isValidAction(action) {
		return "", fmt.Errorf("action %q 不在白名单", action)
	}

	quantity := parsed.Get("quantity").Float()
	if math.IsNaN(quantity) || quantity < 0 {
		quantity = 0
	}

	confidence := parsed.Get("confidence").Float()
	if math.IsNaN(confidence) {
		confidence = 50
	}
	confidence = math.Max(0, math.Min(confidence, 100))

	reasoning := parsed.Get("reasoning").String()

	out, err := json.Marshal(Decision{
		Action:     action,
		Quantity:   int(quantity),
		Confidence: confidence,
		Reasoning:  reasoning,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func isValidAction(action string) bool {
	for _, a := range ValidActions {
		if a == action {
			return true
		}
	}
	return false
}
