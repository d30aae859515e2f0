package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mixgo/internal/pkg/amount"
)

var errNotConnected = errors.New("broker: not connected, call Connect first")

// Paper is an in-memory broker that fills every market order instantly.
// It keeps simplified long/short books per ticker and is safe for
// concurrent use.
type Paper struct {
	mu        sync.Mutex
	connected bool
	cash      float64
	positions map[string]*BrokerPosition
	orders    map[string]OrderStatus
	prices    map[string]float64
}

func NewPaper(initialCash float64) *Paper {
	return &Paper{
		cash:      initialCash,
		positions: make(map[string]*BrokerPosition),
		orders:    make(map[string]OrderStatus),
		prices:    make(map[string]float64),
	}
}

// SetPrice sets the fill price used for a ticker.
func (p *Paper) SetPrice(ticker string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[ticker] = price
	if pos, ok := p.positions[ticker]; ok {
		pos.CurrentPrice = price
		refreshPnL(pos)
	}
}

func refreshPnL(pos *BrokerPosition) {
	if pos.AveragePrice <= 0 || pos.Quantity == 0 {
		pos.ProfitLoss = 0
		pos.ProfitLossPct = 0
		return
	}
	if pos.Direction == "long" {
		pos.ProfitLoss = float64(pos.Quantity) * (pos.CurrentPrice - pos.AveragePrice)
		pos.ProfitLossPct = (pos.CurrentPrice/pos.AveragePrice - 1) * 100
	} else {
		pos.ProfitLoss = float64(pos.Quantity) * (pos.AveragePrice - pos.CurrentPrice)
		if pos.CurrentPrice > 0 {
			pos.ProfitLossPct = (pos.AveragePrice/pos.CurrentPrice - 1) * 100
		}
	}
}

// Connect always succeeds for the paper broker.
func (p *Paper) Connect(_ context.Context, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return nil
}

func (p *Paper) AccountInfo(_ context.Context) (AccountInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return AccountInfo{}, errNotConnected
	}

	var longValue, shortValue float64
	for _, pos := range p.positions {
		value := float64(pos.Quantity) * pos.CurrentPrice
		if pos.Direction == "long" {
			longValue += value
		} else {
			shortValue += value
		}
	}
	portfolioValue := p.cash + longValue - shortValue
	return AccountInfo{
		ID:               "paper-account",
		Cash:             p.cash,
		PortfolioValue:   portfolioValue,
		BuyingPower:      p.cash * 2,
		Equity:           portfolioValue,
		LongMarketValue:  longValue,
		ShortMarketValue: shortValue,
		Status:           "ACTIVE",
	}, nil
}

func (p *Paper) Positions(_ context.Context) ([]BrokerPosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return nil, errNotConnected
	}
	out := make([]BrokerPosition, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	return out, nil
}

func (p *Paper) priceFor(ticker string) float64 {
	if price, ok := p.prices[ticker]; ok {
		return price
	}
	return 100.0
}

func (p *Paper) PlaceOrder(_ context.Context, req OrderRequest) (OrderStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return OrderStatus{}, errNotConnected
	}
	if req.Quantity <= 0 {
		return OrderStatus{}, fmt.Errorf("broker: invalid quantity %d", req.Quantity)
	}

	fillPrice := p.priceFor(req.Ticker)
	if req.OrderType == OrderTypeLimit && req.LimitPrice > 0 {
		fillPrice = req.LimitPrice
	}

	filled, err := p.applyFill(req.Ticker, req.Direction, req.Quantity, fillPrice)
	if err != nil {
		return OrderStatus{}, err
	}

	order := OrderStatus{
		OrderID:   uuid.NewString(),
		Ticker:    req.Ticker,
		Direction: req.Direction,
		Quantity:  filled,
		Price:     fillPrice,
		Status:    "filled",
		Timestamp: time.Now(),
	}
	p.orders[order.OrderID] = order
	return order, nil
}

// applyFill mutates the simplified book. Buys clip to cash; sells and
// covers clip to the open quantity.
func (p *Paper) applyFill(ticker, direction string, quantity int, price float64) (int, error) {
	pos, ok := p.positions[ticker]

	switch direction {
	case DirectionBuy:
		if affordable := amount.MaxShares(p.cash, price); quantity > affordable {
			quantity = affordable
		}
		if quantity <= 0 {
			return 0, errors.New("broker: insufficient cash")
		}
		if !ok || pos.Direction != "long" {
			pos = &BrokerPosition{Ticker: ticker, Direction: "long", CurrentPrice: price}
			p.positions[ticker] = pos
		}
		pos.AveragePrice = amount.WeightedAverage(pos.Quantity, pos.AveragePrice, quantity, price)
		pos.Quantity += quantity
		p.cash -= float64(quantity) * price

	case DirectionSell:
		if !ok || pos.Direction != "long" || pos.Quantity == 0 {
			return 0, errors.New("broker: no long position to sell")
		}
		if quantity > pos.Quantity {
			quantity = pos.Quantity
		}
		pos.Quantity -= quantity
		p.cash += float64(quantity) * price
		if pos.Quantity == 0 {
			delete(p.positions, ticker)
		}

	case DirectionShort:
		if !ok || pos.Direction != "short" {
			pos = &BrokerPosition{Ticker: ticker, Direction: "short", CurrentPrice: price}
			p.positions[ticker] = pos
		}
		pos.AveragePrice = amount.WeightedAverage(pos.Quantity, pos.AveragePrice, quantity, price)
		pos.Quantity += quantity
		p.cash += float64(quantity) * price

	case DirectionCover:
		if !ok || pos.Direction != "short" || pos.Quantity == 0 {
			return 0, errors.New("broker: no short position to cover")
		}
		if quantity > pos.Quantity {
			quantity = pos.Quantity
		}
		pos.Quantity -= quantity
		p.cash -= float64(quantity) * price
		if pos.Quantity == 0 {
			delete(p.positions, ticker)
		}

	default:
		return 0, fmt.Errorf("broker: unknown direction %q", direction)
	}

	if pos != nil {
		pos.CurrentPrice = price
		refreshPnL(pos)
	}
	return quantity, nil
}

func (p *Paper) CancelOrder(_ context.Context, orderID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return false, errNotConnected
	}
	order, ok := p.orders[orderID]
	if !ok || order.Status == "filled" {
		// Paper fills are immediate, so pending cancels never match.
		return false, nil
	}
	order.Status = "cancelled"
	p.orders[orderID] = order
	return true, nil
}

func (p *Paper) ClosePosition(ctx context.Context, ticker, direction string) (OrderStatus, error) {
	p.mu.Lock()
	pos, ok := p.positions[ticker]
	if !ok || pos.Direction != direction || pos.Quantity == 0 {
		p.mu.Unlock()
		return OrderStatus{}, fmt.Errorf("broker: no %s position in %s", direction, ticker)
	}
	quantity := pos.Quantity
	p.mu.Unlock()

	closing := DirectionSell
	if direction == "short" {
		closing = DirectionCover
	}
	return p.PlaceOrder(ctx, OrderRequest{
		Ticker:    ticker,
		Direction: closing,
		Quantity:  quantity,
		OrderType: OrderTypeMarket,
	})
}
