package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
ai:
  model: gpt-4o-mini
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":9991", cfg.App.HTTPAddr)
	assert.Equal(t, "https://api.financialdatasets.ai", cfg.Market.BaseURL)
	assert.Equal(t, 150, cfg.Market.CallDelayMS)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.InDelta(t, 0.05, cfg.Risk.MaxPositionPct, 1e-12)
	assert.InDelta(t, 0.25, cfg.Risk.KellyMultiplier, 1e-12)
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.InDelta(t, 100000.0, cfg.Backtest.InitialCapital, 1e-9)
	assert.Equal(t, "paper", cfg.Broker.Mode)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
risk:
  max_position_pct: 0.1
  max_risk_per_trade: 0.03
  kelly_multiplier: 0.5
backtest:
  tickers: [AAPL, MSFT]
  start_date: "2024-01-01"
  end_date: "2024-03-01"
  initial_capital: 250000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.1, cfg.Risk.MaxPositionPct, 1e-12)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Backtest.Tickers)
	assert.InDelta(t, 250000.0, cfg.Backtest.InitialCapital, 1e-9)

	start, end := cfg.Backtest.Window()
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: verbose
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "app.log_level")
}

func TestLoadRejectsBadRisk(t *testing.T) {
	path := writeConfig(t, `
risk:
  max_position_pct: 1.5
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "risk.max_position_pct")
}

func TestLoadRejectsInvertedDates(t *testing.T) {
	path := writeConfig(t, `
backtest:
  start_date: "2024-06-01"
  end_date: "2024-01-01"
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "end_date")
}

func TestLoadRejectsZeroWeights(t *testing.T) {
	path := writeConfig(t, `
weights:
  trend: 0
  momentum: 0
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "weights")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "paper", cfg.Broker.Mode)
}

func TestWindowFallback(t *testing.T) {
	// 未配置日期时回看 90 天
	b := BacktestConfig{}
	start, end := b.Window()
	assert.Equal(t, 90, int(end.Sub(start).Hours()/24))
}
