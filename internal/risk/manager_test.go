package risk

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixgo/internal/analyst"
	"mixgo/internal/market"
	"mixgo/internal/types"
)

func seriesWithReturns(n int, rng *rand.Rand) market.Series {
	bars := make([]market.Bar, n)
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		price *= 1 + rng.NormFloat64()*0.01
		bars[i] = market.Bar{
			Time: base.AddDate(0, 0, i),
			Open: price, High: price * 1.01, Low: price * 0.99,
			Close: price, Volume: 1_000_000,
		}
	}
	return market.NewSeries("X", bars)
}

func TestKellyFractionBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := seriesWithReturns(200, rng)
	k := kellyFraction(s, 0.2)
	assert.GreaterOrEqual(t, k, 0.0)
	assert.LessOrEqual(t, k, 0.20)
}

func TestKellyFractionFallbacks(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// 不足 30 根 K 线
	assert.Equal(t, 0.02, kellyFraction(seriesWithReturns(20, rng), 0.2))

	// 收益全为正
	bars := make([]market.Bar, 60)
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		price *= 1.01
		bars[i] = market.Bar{Time: base.AddDate(0, 0, i), Close: price, High: price, Low: price}
	}
	assert.Equal(t, 0.02, kellyFraction(market.NewSeries("X", bars), 0.2))
}

func TestKellyHalvedOnHighVolatility(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := seriesWithReturns(200, rng)
	normal := kellyFraction(s, 0.2)
	halved := kellyFraction(s, 0.6)
	if normal > 0 {
		assert.InDelta(t, normal*0.5, halved, 1e-12)
	}
}

func TestAnnualizedVolatilityBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	v := annualizedVolatility(seriesWithReturns(200, rng))
	assert.GreaterOrEqual(t, v, 0.05)
	assert.LessOrEqual(t, v, 1.0)

	assert.Equal(t, 0.15, annualizedVolatility(seriesWithReturns(5, rng)))
}

func TestStopLossPctBounds(t *testing.T) {
	m := NewManager(DefaultConfig())
	for _, vol := range []float64{0.001, 0.01, 0.05, 0.15, 0.5, 2.0} {
		metrics := m.computeMetrics(100, vol, 2, 0.1, 100000)
		assert.GreaterOrEqual(t, metrics.StopLossPct, 0.02)
		assert.LessOrEqual(t, metrics.StopLossPct, 0.08)
	}
}

func TestComputeMetricsMostConservativeWins(t *testing.T) {
	m := NewManager(DefaultConfig())
	metrics := m.computeMetrics(100, 0.15, 2, 0.10, 100000)

	// 凯利上限: 100000*0.10*0.25/100 = 25
	assert.Equal(t, 25, metrics.MaxSharesKelly)
	// 风险上限: riskPerShare = max(4, 2) = 4 → 100000*0.02/4 = 500
	assert.Equal(t, 500, metrics.MaxSharesRisk)
	// 集中度上限: 100000*0.05/100 = 50
	assert.Equal(t, 50, metrics.MaxSharesConcentration)

	assert.Equal(t, 25, metrics.RecommendedShares)
	assert.LessOrEqual(t, metrics.Confidence, 95.0)
	assert.GreaterOrEqual(t, metrics.Confidence, 30.0)
}

func TestAnalyzeDefaultSignalOnMissingData(t *testing.T) {
	m := NewManager(DefaultConfig())
	portfolio := types.NewPortfolio(100000, 0.5, []string{"GONE"})

	signals := m.Analyze([]string{"GONE"}, map[string]market.Series{}, portfolio)
	require.Contains(t, signals, "GONE")

	sig := signals["GONE"]
	assert.Equal(t, analyst.SignalRiskManagement, sig.Signal)
	assert.Equal(t, 25.0, sig.Confidence)
	require.NotNil(t, sig.MaxPositionSize)
	assert.Zero(t, *sig.MaxPositionSize)
}

func TestAnalyzeProducesRecommendation(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	s := seriesWithReturns(200, rng)
	m := NewManager(DefaultConfig())
	portfolio := types.NewPortfolio(100000, 0.5, []string{"X"})

	signals := m.Analyze([]string{"X"}, map[string]market.Series{"X": s}, portfolio)
	sig := signals["X"]
	assert.Equal(t, analyst.SignalRiskManagement, sig.Signal)
	require.NotNil(t, sig.MaxPositionSize)
	assert.GreaterOrEqual(t, *sig.MaxPositionSize, 0)
	assert.Contains(t, sig.Reasoning, "kelly_fraction")
	assert.Contains(t, sig.Reasoning, "recommended_shares")
}

func TestPortfolioValueFloor(t *testing.T) {
	m := NewManager(DefaultConfig())
	assert.Equal(t, 10000.0, m.portfolioValue(types.NewPortfolio(500, 0.5, nil)))
	assert.Equal(t, 10000.0, m.portfolioValue(nil))
}

func TestPortfolioSummaryConcentration(t *testing.T) {
	m := NewManager(DefaultConfig())
	p := types.NewPortfolio(90000, 0.5, []string{"BIG"})
	p.Positions["BIG"].Long = 100
	p.Positions["BIG"].LongCostBasis = 100 // 10000/100000 = 10% > 5%

	s := m.PortfolioSummary(p)
	assert.InDelta(t, 100000.0, s.TotalValue, 1e-9)
	assert.InDelta(t, 0.10, s.LargestPositionPct, 1e-9)
	assert.False(t, s.WithinRiskLimits)
	assert.Equal(t, 1, s.PositionsCount)
	assert.InDelta(t, 10000.0, s.GrossExposure, 1e-9)
}

func TestOptimizeAllocationAdvisory(t *testing.T) {
	m := NewManager(DefaultConfig())
	decisions := map[string]DecisionView{
		"A": {Action: "buy", Quantity: 10, Confidence: 80},
		"B": {Action: "buy", Quantity: 5, Confidence: 40},
		"C": {Action: "hold", Quantity: 0, Confidence: 90},
	}
	alloc := m.OptimizeAllocation(decisions, 100000)

	require.Len(t, alloc, 2)
	assert.NotContains(t, alloc, "C")
	// 比例被集中度上限 5% 截断
	assert.LessOrEqual(t, alloc["A"].AllocationPct, 0.05+1e-12)
	assert.LessOrEqual(t, alloc["B"].AllocationPct, 0.05+1e-12)
	assert.Equal(t, 80.0, alloc["A"].OriginalConfidence)

	assert.Empty(t, m.OptimizeAllocation(map[string]DecisionView{}, 100000))
}
