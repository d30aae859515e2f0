package technical

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"mixgo/internal/market"
)

// strategyResult 单个子策略输出。Confidence 取值 [0,1]。
type strategyResult struct {
	Signal     string
	Confidence float64
	Metrics    map[string]any
}

// 各子策略数据不足时的兜底结论。
func fallbackResult(metrics map[string]any) strategyResult {
	return strategyResult{Signal: "neutral", Confidence: 0.3, Metrics: metrics}
}

// trendSignals 多周期趋势跟随：EMA 8/21/55 排列 + ADX 趋势强度。
func trendSignals(s market.Series) strategyResult {
	closes := s.Closes()
	if len(closes) < 55 {
		return fallbackResult(map[string]any{"adx": 25.0, "trend_strength": 0.25})
	}

	ema8, _ := last(talib.Ema(closes, 8))
	ema21, _ := last(talib.Ema(closes, 21))
	ema55, _ := last(talib.Ema(closes, 55))
	ema8 = sanitize(ema8, 100)
	ema21 = sanitize(ema21, 100)
	ema55 = sanitize(ema55, 100)

	adxValue := 25.0
	if len(closes) >= 28 {
		if v, ok := last(talib.Adx(s.Highs(), s.Lows(), closes, 14)); ok {
			adxValue = sanitize(v, 25.0)
		}
	}
	trendStrength := adxValue / 100.0

	shortTrend := ema8 > ema21
	mediumTrend := ema21 > ema55

	var signal string
	var confidence float64
	switch {
	case shortTrend && mediumTrend:
		signal = "bullish"
		confidence = trendStrength
	case !shortTrend && !mediumTrend:
		signal = "bearish"
		confidence = trendStrength
	default:
		signal = "neutral"
		confidence = 0.5
	}

	return strategyResult{
		Signal:     signal,
		Confidence: confidence,
		Metrics: map[string]any{
			"adx":            adxValue,
			"trend_strength": trendStrength,
		},
	}
}

// meanReversionSignals 均值回归：50 期 z-score + 布林带位置 + 双周期 RSI。
func meanReversionSignals(s market.Series) strategyResult {
	closes := s.Closes()
	if len(closes) == 0 {
		return fallbackResult(map[string]any{
			"z_score": 0.0, "price_vs_bb": 0.5, "rsi_14": 50.0, "rsi_28": 50.0,
		})
	}

	latestClose, _ := last(closes)
	latestClose = sanitize(latestClose, 100)

	zScore := 0.0
	if ma, ok := rollingMeanTail(closes, 50); ok {
		if sd, ok2 := rollingStdTail(closes, 50); ok2 && sd > 0 {
			zScore = sanitize((latestClose-ma)/sd, 0)
		}
	}

	bbUpper := latestClose * 1.02
	bbLower := latestClose * 0.98
	if len(closes) >= 20 {
		upper, _, lower := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)
		if u, ok := last(upper); ok {
			bbUpper = sanitize(u, bbUpper)
		}
		if l, ok := last(lower); ok {
			bbLower = sanitize(l, bbLower)
		}
	}

	priceVsBB := 0.5
	if bbUpper != bbLower {
		priceVsBB = sanitize((latestClose-bbLower)/(bbUpper-bbLower), 0.5)
	}

	rsi14, rsi28 := 50.0, 50.0
	if len(closes) > 14 {
		if v, ok := last(talib.Rsi(closes, 14)); ok {
			rsi14 = sanitize(v, 50)
		}
	}
	if len(closes) > 28 {
		if v, ok := last(talib.Rsi(closes, 28)); ok {
			rsi28 = sanitize(v, 50)
		}
	}

	var signal string
	var confidence float64
	switch {
	case zScore < -2 && priceVsBB < 0.2:
		signal = "bullish"
		confidence = math.Min(math.Abs(zScore)/4, 1.0)
	case zScore > 2 && priceVsBB > 0.8:
		signal = "bearish"
		confidence = math.Min(math.Abs(zScore)/4, 1.0)
	default:
		signal = "neutral"
		confidence = 0.5
	}

	return strategyResult{
		Signal:     signal,
		Confidence: confidence,
		Metrics: map[string]any{
			"z_score":     zScore,
			"price_vs_bb": priceVsBB,
			"rsi_14":      rsi14,
			"rsi_28":      rsi28,
		},
	}
}

// momentumSignals 多周期动量（21/63/126 按 0.4/0.3/0.3 加权）加成交量确认。
func momentumSignals(s market.Series) strategyResult {
	closes := s.Closes()
	if len(closes) == 0 {
		return fallbackResult(map[string]any{
			"momentum_1m": 0.0, "momentum_3m": 0.0, "momentum_6m": 0.0,
			"volume_momentum": 1.0,
		})
	}

	returns := pctChange(closes)
	mom1m, mom3m, mom6m := 0.0, 0.0, 0.0
	if v, ok := rollingSumTail(returns, 21); ok {
		mom1m = sanitize(v, 0)
	}
	if v, ok := rollingSumTail(returns, 63); ok {
		mom3m = sanitize(v, 0)
	}
	if v, ok := rollingSumTail(returns, 126); ok {
		mom6m = sanitize(v, 0)
	}

	volumes := s.Volumes()
	volumeMomentum := 1.0
	if volMA, ok := rollingMeanTail(volumes, 21); ok && volMA > 0 {
		if latest, ok2 := last(volumes); ok2 {
			volumeMomentum = sanitize(latest/volMA, 1)
		}
	}

	momentumScore := 0.4*mom1m + 0.3*mom3m + 0.3*mom6m
	volumeConfirmed := volumeMomentum > 1.0

	var signal string
	var confidence float64
	switch {
	case momentumScore > 0.05 && volumeConfirmed:
		signal = "bullish"
		confidence = math.Min(math.Abs(momentumScore)*5, 1.0)
	case momentumScore < -0.05 && volumeConfirmed:
		signal = "bearish"
		confidence = math.Min(math.Abs(momentumScore)*5, 1.0)
	default:
		signal = "neutral"
		confidence = 0.5
	}

	return strategyResult{
		Signal:     signal,
		Confidence: confidence,
		Metrics: map[string]any{
			"momentum_1m":     mom1m,
			"momentum_3m":     mom3m,
			"momentum_6m":     mom6m,
			"volume_momentum": volumeMomentum,
		},
	}
}

// volatilitySignals 波动率机制：21 日年化波动率相对自身 63 日均值的
// 区间（regime）与 z 值，低波动收缩视为看多扩张前兆。
func volatilitySignals(s market.Series) strategyResult {
	closes := s.Closes()
	if len(closes) == 0 {
		return fallbackResult(map[string]any{
			"historical_volatility": 0.15, "volatility_regime": 1.0,
			"volatility_z_score": 0.0, "atr_ratio": 0.02,
		})
	}

	returns := pctChange(closes)
	histVolSeries := rollingStdSeries(returns, 21)
	for i, v := range histVolSeries {
		if !math.IsNaN(v) {
			histVolSeries[i] = v * math.Sqrt(252)
		}
	}

	histVol := 0.15
	if v, ok := last(histVolSeries); ok && !math.IsNaN(v) {
		histVol = v
	}

	volRegime, volZ := 1.0, 0.0
	var valid []float64
	for _, v := range histVolSeries {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if volMA, ok := rollingMeanTail(valid, 63); ok && volMA > 0 {
		volRegime = sanitize(histVol/volMA, 1)
		if volStd, ok2 := rollingStdTail(valid, 63); ok2 && volStd > 0 {
			volZ = sanitize((histVol-volMA)/volStd, 0)
		}
	}

	latestClose, _ := last(closes)
	latestClose = sanitize(latestClose, 100)
	latestATR := 2.0
	if len(closes) > 14 {
		if v, ok := last(talib.Atr(s.Highs(), s.Lows(), closes, 14)); ok {
			latestATR = sanitize(v, 2.0)
		}
	}
	atrRatio := 0.02
	if latestClose > 0 {
		atrRatio = latestATR / latestClose
	}

	var signal string
	var confidence float64
	switch {
	case volRegime < 0.8 && volZ < -1:
		signal = "bullish"
		confidence = math.Min(math.Abs(volZ)/3, 1.0)
	case volRegime > 1.2 && volZ > 1:
		signal = "bearish"
		confidence = math.Min(math.Abs(volZ)/3, 1.0)
	default:
		signal = "neutral"
		confidence = 0.5
	}

	return strategyResult{
		Signal:     signal,
		Confidence: confidence,
		Metrics: map[string]any{
			"historical_volatility": histVol,
			"volatility_regime":     volRegime,
			"volatility_z_score":    volZ,
			"atr_ratio":             atrRatio,
		},
	}
}

// statArbSignals 统计套利：Hurst 指数判定均值回归性，63 日收益偏度定方向。
func statArbSignals(s market.Series) strategyResult {
	closes := s.Closes()
	if len(closes) == 0 {
		return fallbackResult(map[string]any{
			"hurst_exponent": 0.5, "skewness": 0.0, "kurtosis": 0.0,
		})
	}

	hurst := hurstExponent(closes, 20)
	hurst = sanitize(hurst, 0.5)

	returns := pctChange(closes)
	skew := 0.0
	if v, ok := skewTail(returns, 63); ok {
		skew = sanitize(v, 0)
	}

	var signal string
	var confidence float64
	switch {
	case hurst < 0.4 && skew > 1:
		signal = "bullish"
		confidence = (0.5 - hurst) * 2
	case hurst < 0.4 && skew < -1:
		signal = "bearish"
		confidence = (0.5 - hurst) * 2
	default:
		signal = "neutral"
		confidence = 0.5
	}

	return strategyResult{
		Signal:     signal,
		Confidence: confidence,
		Metrics: map[string]any{
			"hurst_exponent": hurst,
			"skewness":       skew,
			"kurtosis":       0.0,
		},
	}
}
