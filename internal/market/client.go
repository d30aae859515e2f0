package market

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"mixgo/internal/logger"
)

const (
	defaultBaseURL    = "https://api.financialdatasets.ai"
	defaultMaxRetries = 5
	defaultBackoff    = time.Second
	defaultCallDelay  = 150 * time.Millisecond
)

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.rest.SetBaseURL(url) }
}

func WithCallDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.callDelay = d }
}

func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// Client fetches prices and fundamentals over HTTP. Responses are cached
// in memory for the process lifetime; concurrent fetches for the same
// ticker are serialized so the provider sees at most one in-flight request
// per symbol.
type Client struct {
	rest       *resty.Client
	callDelay  time.Duration
	maxRetries int

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	cache  map[string]Series
	lastAt time.Time
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	rest := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("X-API-KEY", apiKey).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)
	c := &Client{
		rest:       rest,
		callDelay:  defaultCallDelay,
		maxRetries: defaultMaxRetries,
		locks:      make(map[string]*sync.Mutex),
		cache:      make(map[string]Series),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) tickerLock(ticker string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[ticker]
	if !ok {
		l = &sync.Mutex{}
		c.locks[ticker] = l
	}
	return l
}

// throttle enforces the minimum delay between provider calls.
func (c *Client) throttle() {
	c.mu.Lock()
	wait := c.callDelay - time.Since(c.lastAt)
	c.lastAt = time.Now().Add(wait)
	c.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

type priceRow struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type pricesResponse struct {
	Prices []priceRow `json:"prices"`
}

// GetPrices returns cached daily bars when available, otherwise fetches
// with retry. A provider failure after retries returns an empty series and
// a nil error so callers degrade to a neutral signal.
func (c *Client) GetPrices(ctx context.Context, ticker string, start, end time.Time) (Series, error) {
	key := fmt.Sprintf("%s|%s|%s", ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))

	lock := c.tickerLock(ticker)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var payload pricesResponse
	err := c.doWithRetry(ctx, ticker, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"ticker":     ticker,
				"interval":   "day",
				"start_date": start.Format("2006-01-02"),
				"end_date":   end.Format("2006-01-02"),
			}).
			SetResult(&payload).
			Get("/prices/")
	})
	if err != nil {
		logger.Warnf("prices fetch failed for %s: %v", ticker, err)
		return Series{Ticker: ticker}, nil
	}

	bars := make([]Bar, 0, len(payload.Prices))
	for _, row := range payload.Prices {
		ts, perr := parseBarTime(row.Time)
		if perr != nil {
			continue
		}
		bars = append(bars, Bar{
			Time: ts, Open: row.Open, High: row.High,
			Low: row.Low, Close: row.Close, Volume: row.Volume,
		})
	}
	series := NewSeries(ticker, bars)

	c.mu.Lock()
	c.cache[key] = series
	c.mu.Unlock()
	return series, nil
}

func parseBarTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// doWithRetry runs an HTTP call with exponential backoff on 429 and 5xx.
func (c *Client) doWithRetry(ctx context.Context, ticker string, call func() (*resty.Response, error)) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := defaultBackoff*time.Duration(1<<(attempt-1)) +
				time.Duration(rand.Int63n(int64(500*time.Millisecond)))
			logger.Infof("rate limited on %s, retry %d/%d in %s", ticker, attempt, c.maxRetries, wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		c.throttle()
		resp, err := call()
		if err != nil {
			lastErr = err
			continue
		}
		code := resp.StatusCode()
		switch {
		case code == http.StatusOK:
			return nil
		case code == http.StatusTooManyRequests || code >= 500:
			lastErr = fmt.Errorf("provider returned %d", code)
		default:
			return fmt.Errorf("provider returned %d: %s", code, resp.String())
		}
	}
	return fmt.Errorf("retries exhausted: %w", lastErr)
}

type metricsResponse struct {
	FinancialMetrics []FinancialMetrics `json:"financial_metrics"`
}

func (c *Client) GetFinancialMetrics(ctx context.Context, ticker string, asOf time.Time, limit int) []FinancialMetrics {
	if limit <= 0 {
		limit = 1
	}
	var payload metricsResponse
	err := c.doWithRetry(ctx, ticker, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"ticker":            ticker,
				"report_period_lte": asOf.Format("2006-01-02"),
				"limit":             fmt.Sprintf("%d", limit),
				"period":            "ttm",
			}).
			SetResult(&payload).
			Get("/financial-metrics/")
	})
	if err != nil {
		logger.Warnf("financial metrics fetch failed for %s: %v", ticker, err)
		return nil
	}
	return payload.FinancialMetrics
}

func (c *Client) GetMarketCap(ctx context.Context, ticker string, asOf time.Time) float64 {
	metrics := c.GetFinancialMetrics(ctx, ticker, asOf, 1)
	if len(metrics) == 0 {
		return 0
	}
	return metrics[0].MarketCap
}

type lineItemsResponse struct {
	SearchResults []LineItem `json:"search_results"`
}

func (c *Client) GetLineItems(ctx context.Context, ticker string, items []string, asOf time.Time, limit int) []LineItem {
	if limit <= 0 {
		limit = 1
	}
	var payload lineItemsResponse
	err := c.doWithRetry(ctx, ticker, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetBody(map[string]any{
				"tickers":    []string{ticker},
				"line_items": items,
				"end_date":   asOf.Format("2006-01-02"),
				"limit":      limit,
			}).
			SetResult(&payload).
			Post("/financials/search/line-items")
	})
	if err != nil {
		logger.Warnf("line items fetch failed for %s: %v", ticker, err)
		return nil
	}
	return payload.SearchResults
}
