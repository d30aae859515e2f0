package risk

import (
	"mixgo/internal/logger"
	"mixgo/internal/types"
)

// Summary 组合风险概览。
type Summary struct {
	TotalValue         float64 `json:"total_value"`
	Cash               float64 `json:"cash"`
	CashPct            float64 `json:"cash_pct"`
	PositionsCount     int     `json:"positions_count"`
	LongExposure       float64 `json:"long_exposure"`
	ShortExposure      float64 `json:"short_exposure"`
	NetExposure        float64 `json:"net_exposure"`
	GrossExposure      float64 `json:"gross_exposure"`
	LargestPositionPct float64 `json:"largest_position_pct"`
	WithinRiskLimits   bool    `json:"within_risk_limits"`
	MaxPositionPct     float64 `json:"max_position_limit_pct"`
	MaxRiskPerTradePct float64 `json:"max_risk_per_trade_pct"`
}

// PortfolioSummary 成本价口径的敞口汇总；任一单票敞口超过
// 集中度上限即置 WithinRiskLimits=false。
func (m *Manager) PortfolioSummary(portfolio *types.Portfolio) Summary {
	value := m.portfolioValue(portfolio)
	s := Summary{
		TotalValue:         value,
		WithinRiskLimits:   true,
		MaxPositionPct:     m.cfg.MaxPositionPct * 100,
		MaxRiskPerTradePct: m.cfg.MaxRiskPerTrade * 100,
	}
	if portfolio == nil {
		return s
	}
	s.Cash = portfolio.Cash
	if value > 0 {
		s.CashPct = portfolio.Cash / value
	}

	for _, pos := range portfolio.Positions {
		if pos.Long > 0 || pos.Short > 0 {
			s.PositionsCount++
		}
		if pos.Long > 0 && pos.LongCostBasis > 0 {
			longValue := float64(pos.Long) * pos.LongCostBasis
			s.LongExposure += longValue
			if pct := longValue / value; pct > s.LargestPositionPct {
				s.LargestPositionPct = pct
			}
		}
		if pos.Short > 0 && pos.ShortCostBasis > 0 {
			shortValue := float64(pos.Short) * pos.ShortCostBasis
			s.ShortExposure += shortValue
			if pct := shortValue / value; pct > s.LargestPositionPct {
				s.LargestPositionPct = pct
			}
		}
	}
	s.NetExposure = s.LongExposure - s.ShortExposure
	s.GrossExposure = s.LongExposure + s.ShortExposure
	s.WithinRiskLimits = s.LargestPositionPct <= m.cfg.MaxPositionPct
	return s
}

// DecisionView 分配计算需要的决策字段投影，避免依赖决策包。
type DecisionView struct {
	Action     string
	Quantity   int
	Confidence float64
}

// Allocation 单票建议配比。
type Allocation struct {
	AllocationPct      float64 `json:"allocation_pct"`
	AllocationValue    float64 `json:"allocation_value"`
	RiskScore          float64 `json:"risk_score"`
	OriginalConfidence float64 `json:"original_confidence"`
}

// OptimizeAllocation 按置信度归一化比例分配资金，单票不超过
// 集中度上限。结果仅作展示参考，不回写决策数量。
func (m *Manager) OptimizeAllocation(decisions map[string]DecisionView, portfolioValue float64) map[string]Allocation {
	active := make(map[string]DecisionView)
	for ticker, d := range decisions {
		if d.Action != "hold" && d.Quantity > 0 {
			active[ticker] = d
		}
	}
	if len(active) == 0 {
		return map[string]Allocation{}
	}

	riskScores := make(map[string]float64, len(active))
	var totalScore float64
	for ticker, d := range active {
		score := d.Confidence / 100.0
		riskScores[ticker] = score
		totalScore += score
	}

	out := make(map[string]Allocation, len(active))
	var totalAllocated float64
	for ticker, d := range active {
		if totalScore <= 0 {
			continue
		}
		pct := riskScores[ticker] / totalScore
		if pct > m.cfg.MaxPositionPct {
			pct = m.cfg.MaxPositionPct
		}
		value := portfolioValue * pct
		totalAllocated += value
		out[ticker] = Allocation{
			AllocationPct:      pct,
			AllocationValue:    value,
			RiskScore:          riskScores[ticker],
			OriginalConfidence: d.Confidence,
		}
	}
	logger.Debugf("组合分配完成，共 %d 票，合计 %.0f", len(out), totalAllocated)
	return out
}
