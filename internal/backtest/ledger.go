package backtest

import (
	"mixgo/internal/logger"
	"mixgo/internal/pkg/amount"
	"mixgo/internal/types"
)

// 账本状态机。四种动作的不变式：
//   - buy/short 绝不把现金打成负数（超出部分静默截断并记日志）
//   - sell/cover 绝不把持仓减到负数
//   - 同向加仓重算加权平均成本价，减仓不动成本价，清仓归零

// ExecuteTrade 对组合执行一笔交易，返回实际成交数量。
// 数量或价格非法时为 no-op。
func ExecuteTrade(p *types.Portfolio, ticker, action string, quantity int, price float64) int {
	if quantity <= 0 || price <= 0 {
		return 0
	}

	switch action {
	case "buy":
		return executeBuy(p, ticker, quantity, price)
	case "sell":
		return executeSell(p, ticker, quantity, price)
	case "short":
		return executeShort(p, ticker, quantity, price)
	case "cover":
		return executeCover(p, ticker, quantity, price)
	default:
		return 0
	}
}

func executeBuy(p *types.Portfolio, ticker string, quantity int, price float64) int {
	pos := p.Position(ticker)
	cost := float64(quantity) * price
	if cost > p.Cash {
		clipped := amount.MaxShares(p.Cash, price)
		if clipped <= 0 {
			return 0
		}
		logger.Debugf("买入 %s 资金不足，%d 股截断为 %d 股", ticker, quantity, clipped)
		quantity = clipped
		cost = float64(quantity) * price
	}

	pos.LongCostBasis = amount.WeightedAverage(pos.Long, pos.LongCostBasis, quantity, price)
	pos.Long += quantity
	p.Cash -= cost
	return quantity
}

func executeSell(p *types.Portfolio, ticker string, quantity int, price float64) int {
	pos := p.Position(ticker)
	if quantity > pos.Long {
		logger.Debugf("卖出 %s 持仓不足，%d 股截断为 %d 股", ticker, quantity, pos.Long)
		quantity = pos.Long
	}
	if quantity <= 0 {
		return 0
	}

	realized := (price - pos.LongCostBasis) * float64(quantity)
	p.Gains(ticker).Long += realized

	pos.Long -= quantity
	p.Cash += float64(quantity) * price
	if pos.Long == 0 {
		pos.LongCostBasis = 0
	}
	return quantity
}

func executeShort(p *types.Portfolio, ticker string, quantity int, price float64) int {
	pos := p.Position(ticker)
	proceeds := float64(quantity) * price
	marginRequired := proceeds * p.MarginRequirement

	if marginRequired > p.Cash {
		clipped := amount.MaxSharesWithMargin(p.Cash, price, p.MarginRequirement)
		if clipped <= 0 {
			return 0
		}
		logger.Debugf("做空 %s 保证金不足，%d 股截断为 %d 股", ticker, quantity, clipped)
		quantity = clipped
		proceeds = float64(quantity) * price
		marginRequired = proceeds * p.MarginRequirement
	}

	pos.ShortCostBasis = amount.WeightedAverage(pos.Short, pos.ShortCostBasis, quantity, price)
	pos.Short += quantity
	pos.ShortMarginUsed += marginRequired
	p.MarginUsed += marginRequired

	p.Cash += proceeds - marginRequired
	return quantity
}

func executeCover(p *types.Portfolio, ticker string, quantity int, price float64) int {
	pos := p.Position(ticker)
	if quantity > pos.Short {
		logger.Debugf("平空 %s 持仓不足，%d 股截断为 %d 股", ticker, quantity, pos.Short)
		quantity = pos.Short
	}
	if quantity <= 0 {
		return 0
	}

	coverCost := float64(quantity) * price
	realized := (pos.ShortCostBasis - price) * float64(quantity)

	// 比例必须在减仓前算
	portion := float64(quantity) / float64(pos.Short)
	marginToRelease := portion * pos.ShortMarginUsed

	pos.Short -= quantity
	pos.ShortMarginUsed -= marginToRelease
	p.MarginUsed -= marginToRelease

	p.Cash += marginToRelease - coverCost
	p.Gains(ticker).Short += realized

	if pos.Short == 0 {
		pos.ShortCostBasis = 0
		pos.ShortMarginUsed = 0
	}
	return quantity
}

// PortfolioValue 按市价估值：现金 + 多头市值 + 空头未实现盈亏。
// 空头按 (成本价 − 现价)·数量 折算进净值，不单列负债。
func PortfolioValue(p *types.Portfolio, currentPrices map[string]float64) float64 {
	total := p.Cash
	for ticker, pos := range p.Positions {
		price := currentPrices[ticker]
		if price <= 0 {
			continue
		}
		total += float64(pos.Long) * price
		if pos.Short > 0 {
			total += float64(pos.Short) * (pos.ShortCostBasis - price)
		}
	}
	return total
}
