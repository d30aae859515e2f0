package market

import (
	"context"
	"time"
)

// FinancialMetrics is a fundamentals snapshot for a ticker. Fields mirror
// the upstream API and are zero when the provider has no data.
type FinancialMetrics struct {
	Ticker               string  `json:"ticker"`
	MarketCap            float64 `json:"market_cap"`
	PriceToEarningsRatio float64 `json:"price_to_earnings_ratio"`
	PriceToBookRatio     float64 `json:"price_to_book_ratio"`
	ReturnOnEquity       float64 `json:"return_on_equity"`
	DebtToEquity         float64 `json:"debt_to_equity"`
	EarningsGrowth       float64 `json:"earnings_growth"`
	RevenueGrowth        float64 `json:"revenue_growth"`
}

// LineItem is a single reported financial statement value.
type LineItem struct {
	Ticker      string  `json:"ticker"`
	ReportDate  string  `json:"report_period"`
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	CurrencyISO string  `json:"currency,omitempty"`
}

// Source provides market data to analysts and the backtester. All methods
// fail soft: on provider errors they log and return empty results so a bad
// ticker never aborts a batch.
type Source interface {
	// GetPrices returns daily bars for [start, end], ascending.
	GetPrices(ctx context.Context, ticker string, start, end time.Time) (Series, error)
	// GetMarketCap returns the market cap as of a date, 0 when unknown.
	GetMarketCap(ctx context.Context, ticker string, asOf time.Time) float64
	// GetFinancialMetrics returns up to limit fundamentals snapshots.
	GetFinancialMetrics(ctx context.Context, ticker string, asOf time.Time, limit int) []FinancialMetrics
	// GetLineItems searches reported statement line items by name.
	GetLineItems(ctx context.Context, ticker string, items []string, asOf time.Time, limit int) []LineItem
}
