package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixgo/internal/types"
)

func TestBuyThenSellScenario(t *testing.T) {
	p := types.NewPortfolio(100000, 0.5, []string{"AAPL"})

	executed := ExecuteTrade(p, "AAPL", "buy", 100, 50)
	assert.Equal(t, 100, executed)
	assert.InDelta(t, 95000.0, p.Cash, 1e-9)
	assert.Equal(t, 100, p.Positions["AAPL"].Long)
	assert.InDelta(t, 50.0, p.Positions["AAPL"].LongCostBasis, 1e-9)

	executed = ExecuteTrade(p, "AAPL", "sell", 40, 60)
	assert.Equal(t, 40, executed)
	assert.InDelta(t, 400.0, p.RealizedGains["AAPL"].Long, 1e-9)
	assert.InDelta(t, 97400.0, p.Cash, 1e-9)
	assert.Equal(t, 60, p.Positions["AAPL"].Long)
	// 减仓不动成本价
	assert.InDelta(t, 50.0, p.Positions["AAPL"].LongCostBasis, 1e-9)
}

func TestShortThenCoverScenario(t *testing.T) {
	p := types.NewPortfolio(10000, 0.5, []string{"TSLA"})

	executed := ExecuteTrade(p, "TSLA", "short", 100, 20)
	assert.Equal(t, 100, executed)
	// 现金 += 2000 − 1000
	assert.InDelta(t, 11000.0, p.Cash, 1e-9)
	assert.InDelta(t, 1000.0, p.Positions["TSLA"].ShortMarginUsed, 1e-9)
	assert.InDelta(t, 1000.0, p.MarginUsed, 1e-9)
	assert.InDelta(t, 20.0, p.Positions["TSLA"].ShortCostBasis, 1e-9)

	executed = ExecuteTrade(p, "TSLA", "cover", 100, 15)
	assert.Equal(t, 100, executed)
	assert.InDelta(t, 500.0, p.RealizedGains["TSLA"].Short, 1e-9)
	// 现金 += 1000（释放保证金）− 1500（回补成本）
	assert.InDelta(t, 10500.0, p.Cash, 1e-9)
	assert.Zero(t, p.Positions["TSLA"].Short)
	assert.Zero(t, p.Positions["TSLA"].ShortCostBasis)
	assert.Zero(t, p.Positions["TSLA"].ShortMarginUsed)
	assert.Zero(t, p.MarginUsed)
}

func TestWeightedAverageCostBasisOnAdds(t *testing.T) {
	p := types.NewPortfolio(1000000, 0.5, []string{"X"})

	ExecuteTrade(p, "X", "buy", 100, 50)
	ExecuteTrade(p, "X", "buy", 50, 60)
	// (100·50 + 50·60) / 150
	assert.InDelta(t, 53.333333, p.Positions["X"].LongCostBasis, 1e-5)

	ExecuteTrade(p, "X", "sell", 150, 70)
	assert.Zero(t, p.Positions["X"].Long)
	// 全平后成本价归零
	assert.Zero(t, p.Positions["X"].LongCostBasis)
}

func TestBuyClipsToAvailableCash(t *testing.T) {
	p := types.NewPortfolio(1000, 0.5, []string{"X"})

	executed := ExecuteTrade(p, "X", "buy", 100, 30)
	assert.Equal(t, 33, executed)
	assert.InDelta(t, 10.0, p.Cash, 1e-9)
	assert.GreaterOrEqual(t, p.Cash, 0.0)
}

func TestSellClipsToHeldPosition(t *testing.T) {
	p := types.NewPortfolio(10000, 0.5, []string{"X"})
	ExecuteTrade(p, "X", "buy", 10, 100)

	executed := ExecuteTrade(p, "X", "sell", 50, 110)
	assert.Equal(t, 10, executed)
	assert.Zero(t, p.Positions["X"].Long)
}

func TestShortClipsToMarginCapacity(t *testing.T) {
	p := types.NewPortfolio(1000, 0.5, []string{"X"})

	// 每股押金 20·0.5=10，最多 100 股
	executed := ExecuteTrade(p, "X", "short", 500, 20)
	assert.Equal(t, 100, executed)
	assert.GreaterOrEqual(t, p.Cash, 0.0)
}

func TestCoverClipsToShortPosition(t *testing.T) {
	p := types.NewPortfolio(10000, 0.5, []string{"X"})
	ExecuteTrade(p, "X", "short", 10, 50)

	executed := ExecuteTrade(p, "X", "cover", 99, 45)
	assert.Equal(t, 10, executed)
	assert.Zero(t, p.Positions["X"].Short)
}

func TestPartialCoverReleasesProportionalMargin(t *testing.T) {
	p := types.NewPortfolio(10000, 0.5, []string{"X"})
	ExecuteTrade(p, "X", "short", 100, 20) // 押金 1000

	ExecuteTrade(p, "X", "cover", 40, 18)
	// 释放 40% 押金
	assert.InDelta(t, 600.0, p.Positions["X"].ShortMarginUsed, 1e-9)
	assert.InDelta(t, 600.0, p.MarginUsed, 1e-9)
	assert.Equal(t, 60, p.Positions["X"].Short)
	// 减仓不动空头成本价
	assert.InDelta(t, 20.0, p.Positions["X"].ShortCostBasis, 1e-9)
}

func TestNoOpOnInvalidInput(t *testing.T) {
	p := types.NewPortfolio(10000, 0.5, []string{"X"})
	assert.Zero(t, ExecuteTrade(p, "X", "buy", 0, 50))
	assert.Zero(t, ExecuteTrade(p, "X", "buy", 10, 0))
	assert.Zero(t, ExecuteTrade(p, "X", "buy", -5, 50))
	assert.Zero(t, ExecuteTrade(p, "X", "hold", 10, 50))
	assert.InDelta(t, 10000.0, p.Cash, 1e-9)
}

func TestPortfolioValueMarksShortsToMarket(t *testing.T) {
	p := types.NewPortfolio(10000, 0.5, []string{"L", "S"})
	ExecuteTrade(p, "L", "buy", 10, 100)  // 现金 9000
	ExecuteTrade(p, "S", "short", 10, 50) // 现金 9000+500−250=9250

	require.InDelta(t, 9250.0, p.Cash, 1e-9)

	// 多头涨到 110，空头跌到 40：9250 + 1100 + 10·(50−40)
	value := PortfolioValue(p, map[string]float64{"L": 110, "S": 40})
	assert.InDelta(t, 10450.0, value, 1e-9)

	// 无价格的票跳过
	value = PortfolioValue(p, map[string]float64{"L": 110})
	assert.InDelta(t, 10350.0, value, 1e-9)
}
