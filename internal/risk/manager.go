package risk

import (
	"math"

	"mixgo/internal/analyst"
	"mixgo/internal/logger"
	"mixgo/internal/market"
	"mixgo/internal/types"
)

// Config 风控参数，构造时注入，运行期不可变。
type Config struct {
	MaxPositionPct  float64 `toml:"max_position_pct"`
	MaxRiskPerTrade float64 `toml:"max_risk_per_trade"`
	KellyMultiplier float64 `toml:"kelly_multiplier"`
}

// DefaultConfig 单票上限 5%，单笔风险 2%，四分之一凯利。
func DefaultConfig() Config {
	return Config{
		MaxPositionPct:  0.05,
		MaxRiskPerTrade: 0.02,
		KellyMultiplier: 0.25,
	}
}

// Manager 凯利仓位风控。产出 risk_management 信号，
// MaxPositionSize 即建议持仓上限。
type Manager struct {
	cfg Config
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxPositionPct <= 0 {
		cfg.MaxPositionPct = 0.05
	}
	if cfg.MaxRiskPerTrade <= 0 {
		cfg.MaxRiskPerTrade = 0.02
	}
	if cfg.KellyMultiplier <= 0 {
		cfg.KellyMultiplier = 0.25
	}
	return &Manager{cfg: cfg}
}

func (m *Manager) Name() string { return "risk_manager" }

// Analyze 逐票产出风控信号。数据缺失的票给保守默认信号
// （建议 0 股、置信度 25），绝不中断整批。
func (m *Manager) Analyze(tickers []string, prices map[string]market.Series, portfolio *types.Portfolio) map[string]analyst.Signal {
	signals := make(map[string]analyst.Signal, len(tickers))
	portfolioValue := m.portfolioValue(portfolio)
	logger.Debugf("风控分析开始，组合估值 %.2f", portfolioValue)

	for _, ticker := range tickers {
		series, ok := prices[ticker]
		if !ok || series.Empty() {
			signals[ticker] = m.defaultSignal(portfolioValue)
			continue
		}

		price := currentPrice(series)
		volatility := annualizedVolatility(series)
		atr := atr14(series, price)
		kelly := kellyFraction(series, volatility)

		metrics := m.computeMetrics(price, volatility, atr, kelly, portfolioValue)
		shares := metrics.RecommendedShares
		signals[ticker] = analyst.Signal{
			Signal:          analyst.SignalRiskManagement,
			Confidence:      metrics.Confidence,
			Reasoning:       metrics.reasoningMap(),
			MaxPositionSize: &shares,
		}
		logger.Debugf("风控 %s: 价格 %.2f 波动 %.2f 凯利 %.4f 建议 %d 股",
			ticker, price, volatility, kelly, shares)
	}
	return signals
}

// portfolioValue 成本价口径估值，带 10000 下限保证后续比例计算稳定。
func (m *Manager) portfolioValue(portfolio *types.Portfolio) float64 {
	if portfolio == nil {
		return 10000.0
	}
	total := portfolio.Cash
	for _, pos := range portfolio.Positions {
		total += float64(pos.Long) * pos.LongCostBasis
		total += float64(pos.Short) * pos.ShortCostBasis
	}
	return math.Max(total, 10000.0)
}

// defaultSignal 数据不足时的保守兜底。
func (m *Manager) defaultSignal(portfolioValue float64) analyst.Signal {
	zero := 0
	return analyst.Signal{
		Signal:     analyst.SignalRiskManagement,
		Confidence: 25.0,
		Reasoning: map[string]any{
			"note":                   "insufficient price data for detailed risk analysis",
			"max_position_value":     portfolioValue * (m.cfg.MaxPositionPct / 2),
			"recommended_shares":     0,
			"kelly_fraction":         0.01,
			"kelly_adjusted":         0.0025,
			"volatility_annual":      0.20,
			"stop_loss_pct":          0.05,
			"current_price":          100.0,
			"atr_14d":                2.0,
			"portfolio_exposure_pct": 0.0,
		},
		MaxPositionSize: &zero,
	}
}
