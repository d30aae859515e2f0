package broker

import (
	"context"
	"time"
)

// Direction values accepted by PlaceOrder.
const (
	DirectionBuy   = "buy"
	DirectionSell  = "sell"
	DirectionShort = "short"
	DirectionCover = "cover"
)

// Order types.
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
	OrderTypeStop   = "stop"
)

// AccountInfo is a brokerage account snapshot.
type AccountInfo struct {
	ID               string  `json:"id"`
	Cash             float64 `json:"cash"`
	PortfolioValue   float64 `json:"portfolio_value"`
	BuyingPower      float64 `json:"buying_power"`
	Equity           float64 `json:"equity"`
	LongMarketValue  float64 `json:"long_market_value"`
	ShortMarketValue float64 `json:"short_market_value"`
	Status           string  `json:"status"`
}

// BrokerPosition is a single open position as the broker reports it.
type BrokerPosition struct {
	Ticker        string  `json:"ticker"`
	Direction     string  `json:"direction"` // long or short
	Quantity      int     `json:"quantity"`
	AveragePrice  float64 `json:"average_price"`
	CurrentPrice  float64 `json:"current_price"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// OrderStatus describes a placed order.
type OrderStatus struct {
	OrderID   string    `json:"order_id"`
	Ticker    string    `json:"ticker"`
	Direction string    `json:"direction"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"` // filled, pending, rejected, cancelled
	Timestamp time.Time `json:"timestamp"`
}

// OrderRequest carries the parameters of a new order.
type OrderRequest struct {
	Ticker     string
	Direction  string
	Quantity   int
	OrderType  string
	LimitPrice float64
	StopPrice  float64
}

// Broker executes orders in live or paper mode. Missing credentials are
// fatal at Connect time only; analysis never touches a broker.
type Broker interface {
	Connect(ctx context.Context, credentials map[string]string) error
	AccountInfo(ctx context.Context) (AccountInfo, error)
	Positions(ctx context.Context) ([]BrokerPosition, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderStatus, error)
	CancelOrder(ctx context.Context, orderID string) (bool, error)
	ClosePosition(ctx context.Context, ticker, direction string) (OrderStatus, error)
}
