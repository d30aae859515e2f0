package backtest

import (
	"math"
)

const (
	annualRiskFreeRate = 0.0434
	tradingDaysPerYear = 252
	epsilonStd         = 1e-12
)

// ComputeMetrics 从估值序列算绩效。不足两个数据点返回零值。
// 夏普/索提诺基于超额收益（日化无风险利率 4.34%/252）；
// 无负超额收益且均值为正时索提诺给 +Inf 哨兵。
func ComputeMetrics(values []DayValue) PerformanceMetrics {
	var m PerformanceMetrics
	if len(values) < 2 {
		return m
	}

	dailyRiskFree := annualRiskFreeRate / tradingDaysPerYear
	excess := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1].Value
		if prev == 0 {
			continue
		}
		dailyReturn := values[i].Value/prev - 1
		excess = append(excess, dailyReturn-dailyRiskFree)
	}
	if len(excess) < 2 {
		return m
	}

	meanExcess := meanOf(excess)
	stdExcess := stdSampleOf(excess)

	if stdExcess > epsilonStd {
		m.SharpeRatio = math.Sqrt(tradingDaysPerYear) * meanExcess / stdExcess
	}

	var negative []float64
	for _, r := range excess {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	downsideStd := stdSampleOf(negative)
	switch {
	case len(negative) > 0 && downsideStd > epsilonStd:
		m.SortinoRatio = math.Sqrt(tradingDaysPerYear) * meanExcess / downsideStd
	case meanExcess > 0:
		m.SortinoRatio = math.Inf(1)
	default:
		m.SortinoRatio = 0
	}

	m.MaxDrawdown, m.MaxDrawdownDate = maxDrawdown(values)
	return m
}

// maxDrawdown 找最深的峰谷跌幅，返回负的百分数和峰值日期。
// 单调不降序列回撤为 0。
func maxDrawdown(values []DayValue) (float64, string) {
	worst := 0.0
	peakValue := values[0].Value
	peakDate := values[0].Date
	worstDate := ""

	for i := 1; i < len(values); i++ {
		v := values[i].Value
		if v > peakValue {
			peakValue = v
			peakDate = values[i].Date
			continue
		}
		if peakValue <= 0 {
			continue
		}
		drawdown := (v - peakValue) / peakValue
		if drawdown < worst {
			worst = drawdown
			worstDate = peakDate.Format("2006-01-02")
		}
	}
	return worst * 100, worstDate
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func stdSampleOf(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := meanOf(xs)
	var ss float64
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
