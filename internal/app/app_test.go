package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixgo/internal/analyst/technical"
	mixcfg "mixgo/internal/config"
	"mixgo/internal/decision"
)

func testConfig(t *testing.T) *mixcfg.Config {
	t.Helper()
	cfg, err := mixcfg.Load("")
	require.NoError(t, err)
	cfg.AI.APIKey = "test-key"
	return cfg
}

func TestNewAppNilConfig(t *testing.T) {
	_, err := NewApp(nil)
	assert.Error(t, err)
}

func TestNewAppMissingAIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.APIKey = ""
	_, err := NewApp(cfg)
	assert.Error(t, err)
}

func TestNewAppBuildsDependencies(t *testing.T) {
	a, err := NewApp(testConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, a.data)
	assert.NotNil(t, a.orch)
	assert.NotNil(t, a.riskManager)
	assert.Len(t, a.sources, 1)
	assert.Equal(t, "technical_analyst", a.sources[0].Name())
	assert.NotNil(t, a.Broker())
}

func TestRunAnalyzeRequiresTickers(t *testing.T) {
	a, err := NewApp(testConfig(t))
	require.NoError(t, err)
	_, err = a.RunAnalyze(context.Background(), nil, time.Now(), 30)
	assert.Error(t, err)
}

func TestRunBacktestRequiresTickers(t *testing.T) {
	a, err := NewApp(testConfig(t))
	require.NoError(t, err)
	_, _, err = a.RunBacktest(context.Background())
	assert.Error(t, err)
}

func TestExecuteDecisionsRoutesActionable(t *testing.T) {
	a, err := NewApp(testConfig(t))
	require.NoError(t, err)

	decisions := map[string]decision.TradingDecision{
		"AAPL": {Action: "buy", Quantity: 10, Confidence: 80},
		"MSFT": {Action: "hold", Quantity: 0, Confidence: 50},
	}
	require.NoError(t, a.ExecuteDecisions(context.Background(), decisions))

	positions, err := a.Broker().Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.Equal(t, 10, positions[0].Quantity)
}

func TestTechnicalWeightsFallback(t *testing.T) {
	w := technicalWeights(mixcfg.WeightsConfig{})
	assert.Equal(t, technical.DefaultWeights(), w)

	w = technicalWeights(mixcfg.WeightsConfig{Trend: 0.5, Momentum: 0.5})
	assert.InDelta(t, 0.5, w.Trend, 1e-12)
	assert.Zero(t, w.MeanReversion)
}
