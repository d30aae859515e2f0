package app

import (
	"context"
	"fmt"
	"time"

	"mixgo/internal/ai"
	"mixgo/internal/analyst"
	"mixgo/internal/backtest"
	"mixgo/internal/broker"
	mixcfg "mixgo/internal/config"
	"mixgo/internal/decision"
	"mixgo/internal/logger"
	"mixgo/internal/market"
	"mixgo/internal/risk"
	apihttp "mixgo/internal/transport/http/api"
	"mixgo/internal/types"
)

// App 负责应用级编排：加载配置→初始化依赖→按命令运行
// 分析、回测或 HTTP 服务。
type App struct {
	cfg         *mixcfg.Config
	data        market.Source
	sources     []analyst.Source
	riskManager *risk.Manager
	engine      *ai.Engine
	orch        *decision.Orchestrator
	broker      broker.Broker
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *mixcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	a := &App{cfg: cfg}
	if err := a.build(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg := a.cfg

	a.data = buildMarket(cfg.Market)
	a.sources = buildSources(cfg.Weights)
	a.riskManager = risk.NewManager(risk.Config{
		MaxPositionPct:  cfg.Risk.MaxPositionPct,
		MaxRiskPerTrade: cfg.Risk.MaxRiskPerTrade,
		KellyMultiplier: cfg.Risk.KellyMultiplier,
	})

	provider, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxRetries:  cfg.AI.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("构建推理引擎失败: %w", err)
	}
	a.engine = ai.NewEngine(provider)
	a.orch = decision.NewOrchestrator(a.sources, a.riskManager, a.engine)
	a.broker = broker.NewPaper(cfg.Broker.InitialCash)
	return nil
}

func buildMarket(cfg mixcfg.MarketConfig) market.Source {
	return market.NewClient(cfg.APIKey,
		market.WithBaseURL(cfg.BaseURL),
		market.WithCallDelay(time.Duration(cfg.CallDelayMS)*time.Millisecond),
		market.WithMaxRetries(cfg.MaxRetries),
	)
}

func buildSources(w mixcfg.WeightsConfig) []analyst.Source {
	weights := technicalWeights(w)
	return []analyst.Source{technicalAgent(weights)}
}

// RunAnalyze 对一批票执行一次当日分析并打印决策。
func (a *App) RunAnalyze(ctx context.Context, tickers []string, end time.Time, lookbackDays int) (map[string]decision.TradingDecision, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("至少需要一个 ticker")
	}
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	portfolio := types.NewPortfolio(a.cfg.Broker.InitialCash, a.cfg.Backtest.MarginRequirement, tickers)
	start := end.AddDate(0, 0, -lookbackDays)

	decisions := a.orch.Analyze(ctx, tickers, a.data, portfolio, start, end)
	for ticker, d := range decisions {
		logger.Infof("%s: %s %d 股，置信度 %.1f", ticker, d.Action, d.Quantity, d.Confidence)
		logger.InfoBlock(d.Reasoning)
	}
	return decisions, nil
}

// RunBacktest 按配置区间执行回测。
func (a *App) RunBacktest(ctx context.Context) ([]backtest.DayValue, backtest.PerformanceMetrics, error) {
	bt := a.cfg.Backtest
	if len(bt.Tickers) == 0 {
		return nil, backtest.PerformanceMetrics{}, fmt.Errorf("backtest.tickers 不能为空")
	}
	start, end := bt.Window()

	executor := backtest.NewExecutor(backtest.Config{
		Tickers:           bt.Tickers,
		Start:             start,
		End:               end,
		InitialCapital:    bt.InitialCapital,
		MarginRequirement: bt.MarginRequirement,
		PrefetchLimit:     bt.PrefetchLimit,
	}, a.orch, a.data)

	values, metrics, err := executor.Run(ctx)
	if err != nil {
		return nil, backtest.PerformanceMetrics{}, err
	}

	final := values[len(values)-1].Value
	logger.Infof("回测完成 run=%s：期初 %.2f 期末 %.2f 收益 %.2f%%",
		executor.RunID(), bt.InitialCapital, final, (final/bt.InitialCapital-1)*100)
	logger.Infof("夏普 %.3f 索提诺 %.3f 最大回撤 %.2f%%（%s）",
		metrics.SharpeRatio, metrics.SortinoRatio, metrics.MaxDrawdown, metrics.MaxDrawdownDate)
	return values, metrics, nil
}

// RunServe 启动 HTTP 服务，阻塞直到 ctx 取消。
func (a *App) RunServe(ctx context.Context) error {
	portfolio := types.NewPortfolio(a.cfg.Broker.InitialCash, a.cfg.Backtest.MarginRequirement, nil)
	server, err := apihttp.NewServer(apihttp.Config{
		Addr:         a.cfg.App.HTTPAddr,
		Orchestrator: a.orch,
		Sources:      a.sources,
		RiskManager:  a.riskManager,
		Data:         a.data,
		Portfolio:    portfolio,
	})
	if err != nil {
		return err
	}
	logger.Infof("HTTP 服务监听 %s", a.cfg.App.HTTPAddr)
	return server.Start(ctx)
}

// Broker 暴露纸面账户，供外部下单通道使用。
func (a *App) Broker() broker.Broker {
	return a.broker
}

// ExecuteDecisions 把可执行决策路由到纸面账户成交。
// 单票失败只记日志，不影响其余票。
func (a *App) ExecuteDecisions(ctx context.Context, decisions map[string]decision.TradingDecision) error {
	if err := a.broker.Connect(ctx, nil); err != nil {
		return fmt.Errorf("连接下单通道失败: %w", err)
	}
	for ticker, d := range decisions {
		if !d.Actionable() {
			continue
		}
		order, err := a.broker.PlaceOrder(ctx, broker.OrderRequest{
			Ticker:    ticker,
			Direction: d.Action,
			Quantity:  d.Quantity,
			OrderType: broker.OrderTypeMarket,
		})
		if err != nil {
			logger.Errorf("下单失败 %s %s %d: %v", ticker, d.Action, d.Quantity, err)
			continue
		}
		logger.Infof("下单成交 %s: %s %d 股 @ %.2f（订单 %s）",
			ticker, order.Direction, order.Quantity, order.Price, order.OrderID)
	}
	return nil
}
