package market

import (
	"context"
	"time"
)

// StaticSource serves pre-loaded series. Used by backtests that already
// prefetched their window and by tests.
type StaticSource struct {
	series  map[string]Series
	metrics map[string][]FinancialMetrics
}

func NewStaticSource(series map[string]Series) *StaticSource {
	if series == nil {
		series = make(map[string]Series)
	}
	return &StaticSource{
		series:  series,
		metrics: make(map[string][]FinancialMetrics),
	}
}

// SetSeries replaces the series for a ticker.
func (s *StaticSource) SetSeries(ticker string, sr Series) {
	s.series[ticker] = sr
}

// SetMetrics sets the fundamentals snapshots returned for a ticker.
func (s *StaticSource) SetMetrics(ticker string, m []FinancialMetrics) {
	s.metrics[ticker] = m
}

func (s *StaticSource) GetPrices(_ context.Context, ticker string, start, end time.Time) (Series, error) {
	sr, ok := s.series[ticker]
	if !ok {
		return Series{Ticker: ticker}, nil
	}
	return sr.Window(start, end), nil
}

func (s *StaticSource) GetMarketCap(ctx context.Context, ticker string, asOf time.Time) float64 {
	m := s.GetFinancialMetrics(ctx, ticker, asOf, 1)
	if len(m) == 0 {
		return 0
	}
	return m[0].MarketCap
}

func (s *StaticSource) GetFinancialMetrics(_ context.Context, ticker string, _ time.Time, limit int) []FinancialMetrics {
	m := s.metrics[ticker]
	if limit > 0 && len(m) > limit {
		m = m[:limit]
	}
	return m
}

func (s *StaticSource) GetLineItems(context.Context, string, []string, time.Time, int) []LineItem {
	return nil
}
