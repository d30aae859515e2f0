package risk

import "math"

// Metrics 单票单日的风控指标，每次调用全量重算。
type Metrics struct {
	CurrentPrice           float64 `json:"current_price"`
	VolatilityAnnual       float64 `json:"volatility_annual"`
	ATR14                  float64 `json:"atr_14d"`
	KellyFraction          float64 `json:"kelly_fraction"`
	KellyAdjusted          float64 `json:"kelly_adjusted"`
	MaxPositionValue       float64 `json:"max_position_value"`
	MaxSharesKelly         int     `json:"max_shares_kelly"`
	MaxSharesRisk          int     `json:"max_shares_risk"`
	MaxSharesConcentration int     `json:"max_shares_concentration"`
	RecommendedShares      int     `json:"recommended_shares"`
	StopLossPrice          float64 `json:"stop_loss_price"`
	StopLossPct            float64 `json:"stop_loss_pct"`
	RiskPerShare           float64 `json:"risk_per_share"`
	PositionRiskPct        float64 `json:"position_risk_pct"`
	PortfolioExposurePct   float64 `json:"portfolio_exposure_pct"`
	Confidence             float64 `json:"confidence"`
}

// computeMetrics 三条独立上限取最小（最保守者胜）：
//  1. 凯利上限：value·kelly·multiplier / price
//  2. 单笔风险上限：value·maxRiskPerTrade / riskPerShare，
//     riskPerShare = max(2·ATR, 2% 价格)
//  3. 集中度上限：value·maxPositionPct / price
func (m *Manager) computeMetrics(price, volatility, atr, kelly, portfolioValue float64) Metrics {
	price = math.Max(0.01, price)
	volatility = math.Max(0.01, volatility)
	atr = math.Max(0.01, atr)
	kelly = math.Max(0, math.Min(kelly, 1.0))
	portfolioValue = math.Max(1000.0, portfolioValue)

	kellyAdjusted := kelly * m.cfg.KellyMultiplier
	maxSharesKelly := int(portfolioValue * kellyAdjusted / price)

	riskPerShare := math.Max(atr*2.0, price*0.02)
	maxSharesRisk := int(portfolioValue * m.cfg.MaxRiskPerTrade / riskPerShare)

	maxPositionValue := portfolioValue * m.cfg.MaxPositionPct
	maxSharesConcentration := int(maxPositionValue / price)

	recommended := maxSharesKelly
	if maxSharesRisk < recommended {
		recommended = maxSharesRisk
	}
	if maxSharesConcentration < recommended {
		recommended = maxSharesConcentration
	}
	if recommended < 0 {
		recommended = 0
	}

	stopLossPct := math.Min(0.08, math.Max(0.02, volatility*1.5))
	stopLossPrice := price * (1 - stopLossPct)

	positionValue := float64(recommended) * price
	positionRisk := float64(recommended) * riskPerShare

	dataQuality := math.Min(1.0, kelly*2)
	constraintScore := 0.3
	if recommended > 0 {
		constraintScore = 1.0
	}
	confidence := math.Min(95.0, 30.0+dataQuality*constraintScore*65.0)

	return Metrics{
		CurrentPrice:           price,
		VolatilityAnnual:       volatility,
		ATR14:                  atr,
		KellyFraction:          kelly,
		KellyAdjusted:          kellyAdjusted,
		MaxPositionValue:       maxPositionValue,
		MaxSharesKelly:         maxSharesKelly,
		MaxSharesRisk:          maxSharesRisk,
		MaxSharesConcentration: maxSharesConcentration,
		RecommendedShares:      recommended,
		StopLossPrice:          stopLossPrice,
		StopLossPct:            stopLossPct,
		RiskPerShare:           riskPerShare,
		PositionRiskPct:        positionRisk / portfolioValue,
		PortfolioExposurePct:   positionValue / portfolioValue,
		Confidence:             confidence,
	}
}

func (m Metrics) reasoningMap() map[string]any {
	return map[string]any{
		"current_price":            m.CurrentPrice,
		"volatility_annual":        m.VolatilityAnnual,
		"atr_14d":                  m.ATR14,
		"kelly_fraction":           m.KellyFraction,
		"kelly_adjusted":           m.KellyAdjusted,
		"max_position_value":       m.MaxPositionValue,
		"max_shares_kelly":         m.MaxSharesKelly,
		"max_shares_risk":          m.MaxSharesRisk,
		"max_shares_concentration": m.MaxSharesConcentration,
		"recommended_shares":       m.RecommendedShares,
		"stop_loss_price":          m.StopLossPrice,
		"stop_loss_pct":            m.StopLossPct,
		"risk_per_share":           m.RiskPerShare,
		"position_risk_pct":        m.PositionRiskPct,
		"portfolio_exposure_pct":   m.PortfolioExposurePct,
	}
}
