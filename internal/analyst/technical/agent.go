package technical

import (
	"context"
	"math"
	"time"

	"mixgo/internal/analyst"
	"mixgo/internal/logger"
	"mixgo/internal/market"
)

// Weights 五个子策略的集成权重。
type Weights struct {
	Trend         float64 `toml:"trend"`
	MeanReversion float64 `toml:"mean_reversion"`
	Momentum      float64 `toml:"momentum"`
	Volatility    float64 `toml:"volatility"`
	StatArb       float64 `toml:"stat_arb"`
}

// DefaultWeights 默认集成权重。
func DefaultWeights() Weights {
	return Weights{
		Trend:         0.25,
		MeanReversion: 0.20,
		Momentum:      0.25,
		Volatility:    0.15,
		StatArb:       0.15,
	}
}

// Agent 技术指标信号源：五个子策略加权集成出单一结论。
// 权重在构造时注入，运行期不可变。
type Agent struct {
	weights Weights
}

func NewAgent(w Weights) *Agent {
	return &Agent{weights: w}
}

func (a *Agent) Name() string { return "technical_analyst" }

// Analyze 逐票计算信号。单票数据缺失降级为中性信号，绝不让
// 一只票拖垮整批。
func (a *Agent) Analyze(ctx context.Context, tickers []string, data market.Source, start, end time.Time) (map[string]analyst.Signal, error) {
	signals := make(map[string]analyst.Signal, len(tickers))
	for _, ticker := range tickers {
		series, err := data.GetPrices(ctx, ticker, start, end)
		if err != nil {
			logger.Warnf("技术分析获取 %s 价格失败: %v", ticker, err)
			signals[ticker] = analyst.NeutralSignal("no price data")
			continue
		}
		if series.Empty() {
			signals[ticker] = analyst.NeutralSignal("no price data")
			continue
		}
		signals[ticker] = a.analyzeOne(series)
	}
	return signals, nil
}

// AnalyzeSeries 对单票已有序列出信号，供回测直接复用已取数据。
func (a *Agent) AnalyzeSeries(series market.Series) analyst.Signal {
	if series.Empty() {
		return analyst.NeutralSignal("no price data")
	}
	return a.analyzeOne(series)
}

func (a *Agent) analyzeOne(series market.Series) analyst.Signal {
	trend := trendSignals(series)
	meanRev := meanReversionSignals(series)
	momentum := momentumSignals(series)
	volatility := volatilitySignals(series)
	statArb := statArbSignals(series)

	finalSignal, finalConfidence := a.combine(map[string]strategyResult{
		"trend":          trend,
		"mean_reversion": meanRev,
		"momentum":       momentum,
		"volatility":     volatility,
		"stat_arb":       statArb,
	})

	reasoning := map[string]any{
		"trend_following":       strategyReasoning(trend),
		"mean_reversion":        strategyReasoning(meanRev),
		"momentum":              strategyReasoning(momentum),
		"volatility":            strategyReasoning(volatility),
		"statistical_arbitrage": strategyReasoning(statArb),
	}

	return analyst.Signal{
		Signal:     finalSignal,
		Confidence: float64(safeRound(finalConfidence * 100)),
		Reasoning:  reasoning,
	}
}

func strategyReasoning(r strategyResult) map[string]any {
	return map[string]any{
		"signal":     r.Signal,
		"confidence": safeRound(r.Confidence * 100),
		"metrics":    r.Metrics,
	}
}

// safeRound NaN/Inf 兜底为 50 后四舍五入取整。
func safeRound(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 50
	}
	return int(math.Round(v))
}

// combine 加权集成：bullish=+1 / bearish=-1，按 weight*confidence
// 加权求和再归一化，阈值 ±0.2 判定方向。
func (a *Agent) combine(results map[string]strategyResult) (string, float64) {
	weightFor := map[string]float64{
		"trend":          a.weights.Trend,
		"mean_reversion": a.weights.MeanReversion,
		"momentum":       a.weights.Momentum,
		"volatility":     a.weights.Volatility,
		"stat_arb":       a.weights.StatArb,
	}
	signalValues := map[string]float64{"bullish": 1, "neutral": 0, "bearish": -1}

	var weightedSum, totalConfidence float64
	for name, r := range results {
		weight, ok := weightFor[name]
		if !ok {
			continue
		}
		confidence := r.Confidence
		if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
			confidence = 0.5
		}
		confidence = clamp(confidence, 0, 1)
		weightedSum += signalValues[r.Signal] * weight * confidence
		totalConfidence += weight * confidence
	}

	finalScore := 0.0
	if totalConfidence > 0 {
		finalScore = weightedSum / totalConfidence
	}
	finalScore = sanitize(finalScore, 0)

	signal := "neutral"
	if finalScore > 0.2 {
		signal = "bullish"
	} else if finalScore < -0.2 {
		signal = "bearish"
	}

	confidence := math.Abs(finalScore)
	confidence = clamp(sanitize(confidence, 0.5), 0, 1)
	return signal, confidence
}
