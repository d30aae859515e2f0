package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixgo/internal/ai"
	"mixgo/internal/decision"
	"mixgo/internal/market"
	"mixgo/internal/risk"
)

type cannedProvider struct {
	reply string
}

func (p *cannedProvider) Complete(context.Context, string, string) (string, error) {
	return p.reply, nil
}

func flatSeries(ticker string, start time.Time, days int, price float64) market.Series {
	bars := make([]market.Bar, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		bars = append(bars, market.Bar{
			Time: d, Open: price, High: price * 1.005, Low: price * 0.995,
			Close: price, Volume: 500_000,
		})
	}
	return market.NewSeries(ticker, bars)
}

func newTestExecutor(t *testing.T, reply string, cfg Config, src market.Source) *Executor {
	t.Helper()
	engine := ai.NewEngine(&cannedProvider{reply: reply})
	manager := risk.NewManager(risk.DefaultConfig())
	orch := decision.NewOrchestrator(nil, manager, engine)
	return NewExecutor(cfg, orch, src)
}

func TestBusinessDaysSkipsWeekends(t *testing.T) {
	// 2024-01-05 周五 .. 2024-01-09 周二
	days := businessDays(
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
	)
	require.Len(t, days, 3)
	assert.Equal(t, time.Friday, days[0].Weekday())
	assert.Equal(t, time.Monday, days[1].Weekday())
	assert.Equal(t, time.Tuesday, days[2].Weekday())
}

func TestExecutorRunHoldKeepsCapital(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	src := market.NewStaticSource(map[string]market.Series{
		"X": flatSeries("X", start.AddDate(0, 0, -200), 260, 100),
	})

	cfg := Config{
		Tickers:           []string{"X"},
		Start:             start,
		End:               end,
		InitialCapital:    100000,
		MarginRequirement: 0.5,
	}
	e := newTestExecutor(t,
		`{"action":"hold","quantity":0,"confidence":60,"reasoning":"flat"}`, cfg, src)

	values, metrics, err := e.Run(context.Background())
	require.NoError(t, err)
	// 首条初始净值 + 5 个交易日
	require.Len(t, values, 6)
	for _, v := range values {
		assert.InDelta(t, 100000.0, v.Value, 1e-9)
	}
	assert.Zero(t, metrics.MaxDrawdown)
	assert.NotEmpty(t, e.RunID())
}

func TestExecutorRunExecutesBuys(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	src := market.NewStaticSource(map[string]market.Series{
		"X": flatSeries("X", start.AddDate(0, 0, -200), 260, 100),
	})

	cfg := Config{
		Tickers:        []string{"X"},
		Start:          start,
		End:            end,
		InitialCapital: 100000,
	}
	e := newTestExecutor(t,
		`{"action":"buy","quantity":10,"confidence":80,"reasoning":"accumulate"}`, cfg, src)

	_, _, err := e.Run(context.Background())
	require.NoError(t, err)

	p := e.Portfolio()
	assert.Greater(t, p.Positions["X"].Long, 0)
	assert.Less(t, p.Cash, 100000.0)
	// 钳制后买入量不超过集中度上限 5% → 50 股/日
	assert.LessOrEqual(t, p.Positions["X"].Long, 100)
}

func TestExecutorDefaultPriceOnMissingData(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	src := market.NewStaticSource(map[string]market.Series{})

	cfg := Config{
		Tickers:        []string{"GONE"},
		Start:          start,
		End:            end,
		InitialCapital: 50000,
	}
	e := newTestExecutor(t,
		`{"action":"hold","quantity":0,"confidence":50,"reasoning":"no data"}`, cfg, src)

	values, _, err := e.Run(context.Background())
	require.NoError(t, err)
	// 无数据走默认价，回测照常推进
	require.Len(t, values, 2)
	assert.InDelta(t, 50000.0, values[1].Value, 1e-9)
}
