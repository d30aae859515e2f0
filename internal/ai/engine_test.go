package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	replies []string
	errs    []error
	calls   int
}

func (p *scriptedProvider) Complete(context.Context, string, string) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.replies) {
		return p.replies[i], nil
	}
	return "", errors.New("script exhausted")
}

func TestParseDecisionStrict(t *testing.T) {
	d, err := ParseDecision(`{"action":"buy","quantity":100,"confidence":85.5,"reasoning":"ok"}`)
	require.NoError(t, err)
	assert.Equal(t, "buy", d.Action)
	assert.Equal(t, 100, d.Quantity)
	assert.InDelta(t, 85.5, d.Confidence, 1e-9)
}

func TestParseDecisionFenced(t *testing.T) {
	raw := "决策如下：\n```json\n{\"action\": \"sell\", \"quantity\": 40, \"confidence\": 70, \"reasoning\": \"take profit\"}\n```"
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, "sell", d.Action)
	assert.Equal(t, 40, d.Quantity)
}

func TestParseDecisionCoercion(t *testing.T) {
	// 字符串数量、大写动作、越界置信度，一轮矫正后应通过
	raw := `{"action":"BUY","quantity":"25","confidence":120,"reasoning":"strong"}`
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, "buy", d.Action)
	assert.Equal(t, 25, d.Quantity)
	assert.Equal(t, 100.0, d.Confidence)
}

func TestParseDecisionRejectsUnknownAction(t *testing.T) {
	_, err := ParseDecision(`{"action":"yolo","quantity":1,"confidence":50,"reasoning":"x"}`)
	assert.Error(t, err)
}

func TestParseDecisionNoJSON(t *testing.T) {
	_, err := ParseDecision("I would just hold here.")
	assert.Error(t, err)
}

func TestEngineRetriesThenSucceeds(t *testing.T) {
	p := &scriptedProvider{
		replies: []string{"garbage", `{"action":"hold","quantity":0,"confidence":60,"reasoning":"wait"}`},
	}
	e := NewEngine(p)
	d := e.Decide(context.Background(), DecisionContext{Ticker: "AAPL"})
	assert.Equal(t, "hold", d.Action)
	assert.Equal(t, 60.0, d.Confidence)
	assert.Equal(t, 2, p.calls)
}

func TestEngineFallbackAfterExhaustion(t *testing.T) {
	p := &scriptedProvider{replies: []string{"junk", "junk", "junk"}}
	e := NewEngine(p)
	d := e.Decide(context.Background(), DecisionContext{Ticker: "AAPL"})
	assert.Equal(t, "hold", d.Action)
	assert.Zero(t, d.Quantity)
	assert.Equal(t, 50.0, d.Confidence)
	assert.Equal(t, 3, p.calls)
}

func TestEngineFallbackOnProviderErrors(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}}
	e := NewEngine(p)
	d := e.Decide(context.Background(), DecisionContext{Ticker: "AAPL"})
	assert.Equal(t, "hold", d.Action)
	assert.Equal(t, 3, p.calls)
}

func TestBuildUserPromptContainsContext(t *testing.T) {
	prompt := BuildUserPrompt(DecisionContext{
		Ticker: "MSFT",
		Price:  412.5,
		Cash:   100000,
	})
	assert.Contains(t, prompt, "MSFT")
	assert.Contains(t, prompt, "$412.50")
	assert.Contains(t, prompt, "VALID JSON OBJECT")
}
