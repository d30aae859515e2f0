package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixgo/internal/ai"
	"mixgo/internal/analyst"
	"mixgo/internal/analyst/technical"
	"mixgo/internal/decision"
	"mixgo/internal/market"
	"mixgo/internal/risk"
	"mixgo/internal/types"
)

type cannedProvider struct {
	reply string
}

func (p *cannedProvider) Complete(context.Context, string, string) (string, error) {
	return p.reply, nil
}

func testSeries(ticker string, days int) market.Series {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 0, days)
	for i := 0; i < days; i++ {
		bars = append(bars, market.Bar{
			Time: start.AddDate(0, 0, i), Open: 100, High: 100.5, Low: 99.5,
			Close: 100, Volume: 400_000,
		})
	}
	return market.NewSeries(ticker, bars)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	src := market.NewStaticSource(map[string]market.Series{
		"AAPL": testSeries("AAPL", 260),
	})
	manager := risk.NewManager(risk.DefaultConfig())
	agent := technical.NewAgent(technical.DefaultWeights())
	engine := ai.NewEngine(&cannedProvider{
		reply: `{"action":"hold","quantity":0,"confidence":55,"reasoning":"flat tape"}`,
	})
	orch := decision.NewOrchestrator([]analyst.Source{agent}, manager, engine)

	s, err := NewServer(Config{
		Orchestrator: orch,
		Sources:      []analyst.Source{agent},
		RiskManager:  manager,
		Data:         src,
		Portfolio:    types.NewPortfolio(100000, 0.5, []string{"AAPL"}),
	})
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestNewServerRequiresOrchestrator(t *testing.T) {
	_, err := NewServer(Config{Data: market.NewStaticSource(nil)})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestAnalysisEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodPost, "/api/analysis",
		`{"tickers":["AAPL"],"end_date":"2024-09-20","lookback_days":60}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Decisions map[string]decision.TradingDecision `json:"decisions"`
		AsOf      string                              `json:"as_of"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-09-20", resp.AsOf)
	require.Contains(t, resp.Decisions, "AAPL")
	d := resp.Decisions["AAPL"]
	assert.Equal(t, "hold", d.Action)
	assert.Contains(t, d.AgentSignals, "technical_analyst")
	assert.Contains(t, d.AgentSignals, "risk_manager")
}

func TestAnalysisRejectsMissingTickers(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodPost, "/api/analysis", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisRejectsBadDate(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodPost, "/api/analysis",
		`{"tickers":["AAPL"],"end_date":"20-09-2024"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignalsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodPost, "/api/signals",
		`{"tickers":["AAPL"],"end_date":"2024-09-20","lookback_days":60}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Signals map[string]map[string]analyst.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Signals, "technical_analyst")
	sig := resp.Signals["technical_analyst"]["AAPL"]
	assert.Contains(t, []string{"bullish", "bearish", "neutral"}, sig.Signal)
}

func TestPortfolioSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/api/portfolio/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Summary risk.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 100000.0, resp.Summary.TotalValue, 1e-9)
	assert.True(t, resp.Summary.WithinRiskLimits)
}

func TestPortfolioEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/api/portfolio", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cash":100000`)
}
