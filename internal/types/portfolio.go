package types

// 中文说明：
// 组合账本的共享数据结构。回测执行器独占持有并修改 Portfolio，
// 其他组件（风控、编排器）只读取快照。

// Position 单票多空仓位。Long/Short 数量恒 >=0；
// 数量为 0 时对应成本价必须为 0。
type Position struct {
	Long            int     `json:"long"`
	Short           int     `json:"short"`
	LongCostBasis   float64 `json:"long_cost_basis"`
	ShortCostBasis  float64 `json:"short_cost_basis"`
	ShortMarginUsed float64 `json:"short_margin_used"`
}

// RealizedGain 累计已实现盈亏，多空分开记。
type RealizedGain struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

// Portfolio 现金 + 持仓 + 保证金状态。
type Portfolio struct {
	Cash              float64                  `json:"cash"`
	MarginUsed        float64                  `json:"margin_used"`
	MarginRequirement float64                  `json:"margin_requirement"`
	Positions         map[string]*Position     `json:"positions"`
	RealizedGains     map[string]*RealizedGain `json:"realized_gains"`
}

// NewPortfolio 为给定票列表初始化空仓组合。
func NewPortfolio(cash, marginRequirement float64, tickers []string) *Portfolio {
	p := &Portfolio{
		Cash:              cash,
		MarginRequirement: marginRequirement,
		Positions:         make(map[string]*Position, len(tickers)),
		RealizedGains:     make(map[string]*RealizedGain, len(tickers)),
	}
	for _, t := range tickers {
		p.Positions[t] = &Position{}
		p.RealizedGains[t] = &RealizedGain{}
	}
	return p
}

// Position 返回某票的仓位，必要时惰性创建。
func (p *Portfolio) Position(ticker string) *Position {
	if p.Positions == nil {
		p.Positions = make(map[string]*Position)
	}
	pos, ok := p.Positions[ticker]
	if !ok {
		pos = &Position{}
		p.Positions[ticker] = pos
	}
	return pos
}

// Gains 返回某票的已实现盈亏记录，必要时惰性创建。
func (p *Portfolio) Gains(ticker string) *RealizedGain {
	if p.RealizedGains == nil {
		p.RealizedGains = make(map[string]*RealizedGain)
	}
	g, ok := p.RealizedGains[ticker]
	if !ok {
		g = &RealizedGain{}
		p.RealizedGains[ticker] = g
	}
	return g
}

// CostBasisValue 按成本价估算组合净值：现金 + 多头成本 − 空头成本。
// 用于决策上下文展示，与回测按市价估值不同。
func (p *Portfolio) CostBasisValue() float64 {
	total := p.Cash
	for _, pos := range p.Positions {
		total += float64(pos.Long) * pos.LongCostBasis
		total -= float64(pos.Short) * pos.ShortCostBasis
	}
	return total
}

// Exposure 成本价口径的多/空/总/净敞口。
type Exposure struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
}

func (p *Portfolio) ExposureSummary() Exposure {
	var e Exposure
	for _, pos := range p.Positions {
		e.Long += float64(pos.Long) * pos.LongCostBasis
		e.Short += float64(pos.Short) * pos.ShortCostBasis
	}
	e.Gross = e.Long + e.Short
	e.Net = e.Long - e.Short
	return e
}

// TotalRealizedGains 所有票多空已实现盈亏之和。
func (p *Portfolio) TotalRealizedGains() float64 {
	var total float64
	for _, g := range p.RealizedGains {
		total += g.Long + g.Short
	}
	return total
}
