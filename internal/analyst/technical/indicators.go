package technical

import (
	"math"
)

// 本文件是统计原语：滚动均值/方差、偏度、Hurst 指数等
// talib 没有现成实现的部分。EMA/RSI/ATR/ADX/布林带走 talib。

// sanitize 把 NaN/Inf 归一为给定默认值，指标链路里不允许传播非法值。
func sanitize(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// last 取序列末值，空序列返回 (0, false)。
func last(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return xs[len(xs)-1], true
}

// pctChange 简单收益率序列，长度 len(xs)-1。
func pctChange(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		if xs[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, xs[i]/xs[i-1]-1)
	}
	return out
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

// stdSample 样本标准差（ddof=1）。
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

// stdPop 总体标准差（ddof=0）。
func stdPop(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// tailWindow 取末尾 window 个元素；不足时返回 (nil, false)。
func tailWindow(xs []float64, window int) ([]float64, bool) {
	if window <= 0 || len(xs) < window {
		return nil, false
	}
	return xs[len(xs)-window:], true
}

// rollingMeanTail 末值的滚动均值。
func rollingMeanTail(xs []float64, window int) (float64, bool) {
	w, ok := tailWindow(xs, window)
	if !ok {
		return 0, false
	}
	return mean(w), true
}

// rollingStdTail 末值的滚动样本标准差。
func rollingStdTail(xs []float64, window int) (float64, bool) {
	w, ok := tailWindow(xs, window)
	if !ok {
		return 0, false
	}
	return stdSample(w), true
}

// rollingSumTail 末值的滚动求和。
func rollingSumTail(xs []float64, window int) (float64, bool) {
	w, ok := tailWindow(xs, window)
	if !ok {
		return 0, false
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum, true
}

// rollingStdSeries 全量滚动样本标准差序列，前 window-1 位为 NaN。
func rollingStdSeries(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := window - 1; i < len(xs); i++ {
		out[i] = stdSample(xs[i-window+1 : i+1])
	}
	return out
}

// skewTail 末尾 window 个样本的总体偏度 g1。
func skewTail(xs []float64, window int) (float64, bool) {
	w, ok := tailWindow(xs, window)
	if !ok {
		return 0, false
	}
	m := mean(w)
	sd := stdPop(w)
	if sd == 0 {
		return 0, true
	}
	var s3 float64
	for _, v := range w {
		d := (v - m) / sd
		s3 += d * d * d
	}
	return s3 / float64(len(w)), true
}

// hurstExponent 差分方差法估计 Hurst 指数：
// 对 lag∈[2, maxLag) 取 tau=sqrt(std(x[lag:]-x[:-lag]))，
// 再对 log(lag)~log(tau) 做最小二乘，斜率即 Hurst。
// 数据不足时退回 0.5（随机游走）。
func hurstExponent(prices []float64, maxLag int) float64 {
	if maxLag < 3 || len(prices) < maxLag*2 {
		return 0.5
	}
	upper := maxLag
	if half := len(prices) / 2; half < upper {
		upper = half
	}
	var logLags, logTaus []float64
	for lag := 2; lag < upper; lag++ {
		if lag >= len(prices) {
			break
		}
		diffs := make([]float64, len(prices)-lag)
		for i := lag; i < len(prices); i++ {
			diffs[i-lag] = prices[i] - prices[i-lag]
		}
		tau := math.Sqrt(stdPop(diffs))
		if tau < 1e-8 {
			tau = 1e-8
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logTaus = append(logTaus, math.Log(tau))
	}
	if len(logTaus) < 2 {
		return 0.5
	}
	slope, ok := leastSquaresSlope(logLags, logTaus)
	if !ok {
		return 0.5
	}
	return slope
}

// leastSquaresSlope 一元最小二乘的斜率。
func leastSquaresSlope(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
