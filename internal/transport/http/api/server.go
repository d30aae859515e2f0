package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mixgo/internal/analyst"
	"mixgo/internal/decision"
	"mixgo/internal/market"
	"mixgo/internal/risk"
	"mixgo/internal/types"
)

const defaultLookbackDays = 30

// Server 提供分析与组合查询的 HTTP API。
type Server struct {
	addr        string
	orch        *decision.Orchestrator
	sources     []analyst.Source
	riskManager *risk.Manager
	data        market.Source
	portfolio   *types.Portfolio
	router      *gin.Engine
}

// Config 描述 API Server 的依赖。
type Config struct {
	Addr         string
	Orchestrator *decision.Orchestrator
	Sources      []analyst.Source
	RiskManager  *risk.Manager
	Data         market.Source
	Portfolio    *types.Portfolio
}

// NewServer 构建 API Server。
func NewServer(cfg Config) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("orchestrator 不能为空")
	}
	if cfg.Data == nil {
		return nil, errors.New("行情数据源不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9991"
	}
	if cfg.Portfolio == nil {
		cfg.Portfolio = types.NewPortfolio(100000, 0.5, nil)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:        cfg.Addr,
		orch:        cfg.Orchestrator,
		sources:     cfg.Sources,
		riskManager: cfg.RiskManager,
		data:        cfg.Data,
		portfolio:   cfg.Portfolio,
		router:      router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	api := s.router.Group("/api")
	api.POST("/analysis", s.handleAnalysis)
	api.POST("/signals", s.handleSignals)
	api.GET("/portfolio", s.handlePortfolio)
	api.GET("/portfolio/summary", s.handlePortfolioSummary)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type analysisRequest struct {
	Tickers      []string `json:"tickers" binding:"required"`
	EndDate      string   `json:"end_date"`
	LookbackDays int      `json:"lookback_days"`
}

// window 解析请求区间，end 缺省为当天。
func (r analysisRequest) window() (time.Time, time.Time, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if r.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}
	lookback := r.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}
	return end.AddDate(0, 0, -lookback), end, nil
}

func (s *Server) handleAnalysis(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, err := req.window()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date 非法，应为 YYYY-MM-DD"})
		return
	}

	decisions := s.orch.Analyze(c.Request.Context(), req.Tickers, s.data, s.portfolio, start, end)
	c.JSON(http.StatusOK, gin.H{"decisions": decisions, "as_of": end.Format("2006-01-02")})
}

func (s *Server) handleSignals(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, err := req.window()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date 非法，应为 YYYY-MM-DD"})
		return
	}

	out := make(map[string]map[string]analyst.Signal, len(s.sources))
	for _, source := range s.sources {
		signals, err := source.Analyze(c.Request.Context(), req.Tickers, s.data, start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out[source.Name()] = signals
	}
	c.JSON(http.StatusOK, gin.H{"signals": out, "as_of": end.Format("2006-01-02")})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cash":               s.portfolio.Cash,
		"margin_used":        s.portfolio.MarginUsed,
		"margin_requirement": s.portfolio.MarginRequirement,
		"positions":          s.portfolio.Positions,
		"realized_gains":     s.portfolio.RealizedGains,
	})
}

func (s *Server) handlePortfolioSummary(c *gin.Context) {
	if s.riskManager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "风控模块未启用"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": s.riskManager.PortfolioSummary(s.portfolio)})
}

// Start 启动 HTTP 服务，阻塞直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
