package decision

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mixgo/internal/ai"
	"mixgo/internal/analyst"
	"mixgo/internal/logger"
	"mixgo/internal/market"
	"mixgo/internal/risk"
	"mixgo/internal/types"
)

const defaultPrefetchLimit = 4

// Orchestrator 决策编排器。流程：并发预取行情 → 跑所有信号源
// 与风控 → 逐票拼上下文调推理引擎 → 风控钳制 → 组合层分配
// （仅展示）。单票失败只影响该票，整批继续。
type Orchestrator struct {
	sources       []analyst.Source
	riskManager   *risk.Manager
	engine        *ai.Engine
	prefetchLimit int
}

func NewOrchestrator(sources []analyst.Source, riskManager *risk.Manager, engine *ai.Engine) *Orchestrator {
	return &Orchestrator{
		sources:       sources,
		riskManager:   riskManager,
		engine:        engine,
		prefetchLimit: defaultPrefetchLimit,
	}
}

// Analyze 对一批票产出当日决策。
func (o *Orchestrator) Analyze(ctx context.Context, tickers []string, data market.Source, portfolio *types.Portfolio, start, end time.Time) map[string]TradingDecision {
	prices := o.prefetchPrices(ctx, tickers, data, start, end)

	// 信号收集：各信号源 + 风控
	allSignals := make(map[string]map[string]analyst.Signal)
	for _, source := range o.sources {
		signals, err := source.Analyze(ctx, tickers, data, start, end)
		if err != nil {
			logger.Warnf("信号源 %s 失败: %v", source.Name(), err)
			continue
		}
		allSignals[source.Name()] = signals
	}
	riskSignals := o.riskManager.Analyze(tickers, prices, portfolio)
	allSignals[o.riskManager.Name()] = riskSignals

	portfolioValue := portfolio.CostBasisValue()
	exposure := portfolio.ExposureSummary()

	decisions := make(map[string]TradingDecision, len(tickers))
	for _, ticker := range tickers {
		tickerSignals := make(map[string]analyst.Signal)
		for agentName, signals := range allSignals {
			if sig, ok := signals[ticker]; ok {
				tickerSignals[agentName] = sig
			}
		}

		price := 0.0
		if series, ok := prices[ticker]; ok {
			price = series.LastClose()
		}

		dc := ai.DecisionContext{
			Ticker:   ticker,
			Signals:  tickerSignals,
			Position: portfolio.Position(ticker),
			Price:    price,
			Cash:     portfolio.Cash,
			PortfolioContext: map[string]any{
				"total_value":        portfolioValue,
				"exposure":           exposure,
				"margin_used":        portfolio.MarginUsed,
				"margin_requirement": portfolio.MarginRequirement,
			},
		}

		raw := o.engine.Decide(ctx, dc)
		riskSignal, hasRisk := riskSignals[ticker]
		clamped := applyRiskConstraints(raw, riskSignal, hasRisk)

		decisions[ticker] = TradingDecision{
			Action:       clamped.Action,
			Quantity:     clamped.Quantity,
			Confidence:   clamped.Confidence,
			Reasoning:    clamped.Reasoning,
			AgentSignals: tickerSignals,
		}
	}

	o.reportAllocation(decisions, portfolio, portfolioValue)
	return decisions
}

// prefetchPrices 并发预取，errgroup 限制在途请求数。
func (o *Orchestrator) prefetchPrices(ctx context.Context, tickers []string, data market.Source, start, end time.Time) map[string]market.Series {
	prices := make(map[string]market.Series, len(tickers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.prefetchLimit)
	for _, ticker := range tickers {
		g.Go(func() error {
			series, err := data.GetPrices(gctx, ticker, start, end)
			if err != nil {
				logger.Warnf("预取 %s 行情失败: %v", ticker, err)
				series = market.Series{Ticker: ticker}
			}
			mu.Lock()
			prices[ticker] = series
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

// reportAllocation 组合层分配只输出日志，不回改数量。
func (o *Orchestrator) reportAllocation(decisions map[string]TradingDecision, portfolio *types.Portfolio, portfolioValue float64) {
	views := make(map[string]risk.DecisionView, len(decisions))
	for ticker, d := range decisions {
		views[ticker] = risk.DecisionView{
			Action:     d.Action,
			Quantity:   d.Quantity,
			Confidence: d.Confidence,
		}
	}
	allocation := o.riskManager.OptimizeAllocation(views, portfolioValue)
	for ticker, a := range allocation {
		logger.Infof("建议配比 %s: %.1f%%（%.0f），置信度 %.1f",
			ticker, a.AllocationPct*100, a.AllocationValue, a.OriginalConfidence)
	}

	summary := o.riskManager.PortfolioSummary(portfolio)
	logger.Infof("组合概览: 总值 %.2f 现金 %.2f 持仓 %d 多头 %.2f 空头 %.2f 最大单票 %.1f%%",
		summary.TotalValue, summary.Cash, summary.PositionsCount,
		summary.LongExposure, summary.ShortExposure, summary.LargestPositionPct*100)
	if !summary.WithinRiskLimits {
		logger.Warnf("组合超出风险限额：最大单票 %.1f%% 超过 %.1f%%",
			summary.LargestPositionPct*100, summary.MaxPositionPct)
	}
}
