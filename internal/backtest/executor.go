package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mixgo/internal/decision"
	"mixgo/internal/logger"
	"mixgo/internal/market"
	"mixgo/internal/types"
)

const (
	lookbackDays      = 30
	prefetchExtraDays = 365
	priceToleranceDay = 5
	defaultPrice      = 100.0
)

// Config 回测参数。
type Config struct {
	Tickers           []string  `toml:"tickers"`
	Start             time.Time `toml:"start"`
	End               time.Time `toml:"end"`
	InitialCapital    float64   `toml:"initial_capital"`
	MarginRequirement float64   `toml:"margin_requirement"`
	PrefetchLimit     int       `toml:"prefetch_limit"`
}

// Executor 回测执行器。日循环严格串行（组合独占），
// 只有预取阶段并发。每次 Run 拥有独立的 Portfolio。
type Executor struct {
	cfg          Config
	orchestrator *decision.Orchestrator
	data         market.Source

	runID     string
	portfolio *types.Portfolio
	series    map[string]market.Series
}

func NewExecutor(cfg Config, orchestrator *decision.Orchestrator, data market.Source) *Executor {
	if cfg.PrefetchLimit <= 0 {
		cfg.PrefetchLimit = 4
	}
	return &Executor{
		cfg:          cfg,
		orchestrator: orchestrator,
		data:         data,
		runID:        uuid.NewString(),
		portfolio:    types.NewPortfolio(cfg.InitialCapital, cfg.MarginRequirement, cfg.Tickers),
		series:       make(map[string]market.Series),
	}
}

// Portfolio 返回当前账本，回测结束后用于查看终态。
func (e *Executor) Portfolio() *types.Portfolio { return e.portfolio }

// RunID 本次回测的唯一标识。
func (e *Executor) RunID() string { return e.runID }

// Run 执行整段回测，返回逐日估值与绩效指标。
// 单日失败跳过该日继续，绝不中止整段回测。
func (e *Executor) Run(ctx context.Context) ([]DayValue, PerformanceMetrics, error) {
	logger.Infof("回测开始 run=%s 标的=%v 区间=%s..%s 本金=%.2f",
		e.runID, e.cfg.Tickers,
		e.cfg.Start.Format("2006-01-02"), e.cfg.End.Format("2006-01-02"),
		e.cfg.InitialCapital)

	if err := e.prefetch(ctx); err != nil {
		return nil, PerformanceMetrics{}, err
	}

	days := businessDays(e.cfg.Start, e.cfg.End)
	if len(days) == 0 {
		return nil, PerformanceMetrics{}, nil
	}

	values := []DayValue{{Date: days[0], Value: e.cfg.InitialCapital}}

	for _, day := range days {
		if ctx.Err() != nil {
			return values, ComputeMetrics(values), ctx.Err()
		}

		currentPrices := e.pricesFor(day)
		if len(currentPrices) == 0 {
			continue
		}

		lookbackStart := day.AddDate(0, 0, -lookbackDays)
		decisions := e.orchestrator.Analyze(ctx, e.cfg.Tickers, e.data, e.portfolio, lookbackStart, day)

		for ticker, d := range decisions {
			if d.Action == "hold" {
				continue
			}
			price := currentPrices[ticker]
			executed := ExecuteTrade(e.portfolio, ticker, d.Action, d.Quantity, price)
			logger.Infof("%s | %s: %s %d 股 @ %.2f（请求 %d，置信度 %.1f%%）",
				day.Format("2006-01-02"), ticker, d.Action, executed, price, d.Quantity, d.Confidence)
		}

		values = append(values, DayValue{
			Date:  day,
			Value: PortfolioValue(e.portfolio, currentPrices),
		})
	}

	metrics := ComputeMetrics(values)
	logger.Infof("回测结束 run=%s 期末净值=%.2f 夏普=%.2f 最大回撤=%.2f%%",
		e.runID, values[len(values)-1].Value, metrics.SharpeRatio, metrics.MaxDrawdown)
	return values, metrics, nil
}

// prefetch 并发拉全程行情（额外向前取一年供指标预热），
// 单票失败降级为空序列。
func (e *Executor) prefetch(ctx context.Context) error {
	start := e.cfg.Start.AddDate(0, 0, -prefetchExtraDays)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PrefetchLimit)
	results := make([]market.Series, len(e.cfg.Tickers))
	for i, ticker := range e.cfg.Tickers {
		g.Go(func() error {
			series, err := e.data.GetPrices(gctx, ticker, start, e.cfg.End)
			if err != nil {
				logger.Warnf("预取 %s 行情失败: %v", ticker, err)
				series = market.Series{Ticker: ticker}
			}
			results[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, ticker := range e.cfg.Tickers {
		e.series[ticker] = results[i]
	}
	return nil
}

// pricesFor 解析当日价格：容忍 5 天内最近 K 线，再缺给默认价，
// 缺数据绝不中止回测。
func (e *Executor) pricesFor(day time.Time) map[string]float64 {
	prices := make(map[string]float64, len(e.cfg.Tickers))
	for _, ticker := range e.cfg.Tickers {
		series := e.series[ticker]
		if price, ok := series.CloseOn(day, priceToleranceDay); ok {
			prices[ticker] = price
			continue
		}
		logger.Warnf("%s 无 %s 价格数据，使用默认价 %.1f",
			ticker, day.Format("2006-01-02"), defaultPrice)
		prices[ticker] = defaultPrice
	}
	return prices
}

// businessDays 区间内的工作日（跳过周六日）。
func businessDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}
