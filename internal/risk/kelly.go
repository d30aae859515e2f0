package risk

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"mixgo/internal/market"
)

// 凯利公式与波动率估计。所有函数失败时返回保守默认值，不报错。

const (
	conservativeKelly = 0.02
	defaultVolatility = 0.15
	kellyCap          = 0.20
	highVolThreshold  = 0.5
)

// kellyFraction 按日收益估计凯利仓位比例 f = (p·b − q) / b。
// 样本不足 30 根 K 线或有效收益不足 10 个时退回 0.02；
// 收益全同号同样退回。结果截断到 [0, 0.20]，年化波动率
// 超过 0.5 再减半。
func kellyFraction(series market.Series, volatility float64) float64 {
	if series.Len() < 30 {
		return conservativeKelly
	}
	returns := series.Returns()
	if len(returns) < 10 {
		return conservativeKelly
	}

	var wins, losses []float64
	for _, r := range returns {
		switch {
		case r > 0:
			wins = append(wins, r)
		case r < 0:
			losses = append(losses, r)
		}
	}
	if len(wins) == 0 || len(losses) == 0 {
		return conservativeKelly
	}

	winProbability := float64(len(wins)) / float64(len(returns))
	avgWin := mean(wins)
	avgLoss := math.Abs(mean(losses))
	if avgWin == 0 || avgLoss == 0 {
		return conservativeKelly
	}

	b := avgWin / avgLoss
	kelly := (winProbability*b - (1 - winProbability)) / b
	kelly = math.Max(0, math.Min(kelly, kellyCap))

	if volatility > highVolThreshold {
		kelly *= 0.5
	}
	return kelly
}

// annualizedVolatility 全样本日收益标准差年化（×√252），
// 截断到 [0.05, 1.0]，数据不足 20 根退回 0.15。
func annualizedVolatility(series market.Series) float64 {
	if series.Len() < 20 {
		return defaultVolatility
	}
	returns := series.Returns()
	daily := stdSample(returns)
	if daily == 0 || math.IsNaN(daily) {
		return defaultVolatility
	}
	annual := daily * math.Sqrt(252)
	return math.Max(0.05, math.Min(annual, 1.0))
}

// atr14 14 期平均真实波幅，数据不足时退回现价的 2%。
func atr14(series market.Series, currentPrice float64) float64 {
	if series.Len() < 15 {
		return currentPrice * 0.02
	}
	values := talib.Atr(series.Highs(), series.Lows(), series.Closes(), 14)
	if len(values) == 0 {
		return currentPrice * 0.02
	}
	latest := values[len(values)-1]
	if math.IsNaN(latest) || latest <= 0 {
		return currentPrice * 0.02
	}
	return latest
}

// currentPrice 序列末收盘价，非法时退回 100。
func currentPrice(series market.Series) float64 {
	price := series.LastClose()
	if math.IsNaN(price) || price <= 0 {
		return 100.0
	}
	return price
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func stdSample(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
