package config

import (
	"fmt"
	"strings"
	"time"
)

// validate 对配置进行基础校验。模型密钥缺失在构建推理引擎时
// 才判为致命，这里只拦截结构性错误。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Weights.validate(); err != nil {
		return err
	}
	if err := c.Backtest.validate(); err != nil {
		return err
	}
	return c.Broker.validate()
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %s", a.LogLevel)
}

func (m *MarketConfig) validate() error {
	if strings.TrimSpace(m.BaseURL) == "" {
		return fmt.Errorf("market.base_url cannot be empty")
	}
	return nil
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model cannot be empty")
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be in [0, 2]")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.MaxPositionPct <= 0 || r.MaxPositionPct > 1 {
		return fmt.Errorf("risk.max_position_pct must be in (0, 1]")
	}
	if r.MaxRiskPerTrade <= 0 || r.MaxRiskPerTrade > 1 {
		return fmt.Errorf("risk.max_risk_per_trade must be in (0, 1]")
	}
	if r.KellyMultiplier <= 0 || r.KellyMultiplier > 1 {
		return fmt.Errorf("risk.kelly_multiplier must be in (0, 1]")
	}
	return nil
}

func (w *WeightsConfig) validate() error {
	for name, v := range map[string]float64{
		"weights.trend":          w.Trend,
		"weights.mean_reversion": w.MeanReversion,
		"weights.momentum":       w.Momentum,
		"weights.volatility":     w.Volatility,
		"weights.stat_arb":       w.StatArb,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("weights must sum to a positive value")
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if b.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be > 0")
	}
	if b.MarginRequirement < 0 || b.MarginRequirement > 1 {
		return fmt.Errorf("backtest.margin_requirement must be in [0, 1]")
	}
	start, end := strings.TrimSpace(b.StartDate), strings.TrimSpace(b.EndDate)
	if start == "" && end == "" {
		return nil
	}
	startT, err := time.Parse("2006-01-02", start)
	if err != nil {
		return fmt.Errorf("backtest.start_date must be YYYY-MM-DD: %w", err)
	}
	endT, err := time.Parse("2006-01-02", end)
	if err != nil {
		return fmt.Errorf("backtest.end_date must be YYYY-MM-DD: %w", err)
	}
	if endT.Before(startT) {
		return fmt.Errorf("backtest.end_date cannot precede start_date")
	}
	return nil
}

// Window 返回解析后的回测区间；未配置时以当天收盘为终点回看
// 90 天。
func (b *BacktestConfig) Window() (time.Time, time.Time) {
	start, err1 := time.Parse("2006-01-02", strings.TrimSpace(b.StartDate))
	end, err2 := time.Parse("2006-01-02", strings.TrimSpace(b.EndDate))
	if err1 != nil || err2 != nil {
		end = time.Now().UTC().Truncate(24 * time.Hour)
		start = end.AddDate(0, 0, -90)
	}
	return start, end
}

func (b *BrokerConfig) validate() error {
	if b.Mode != "paper" {
		return fmt.Errorf("broker.mode only supports 'paper', got %s", b.Mode)
	}
	if b.InitialCash <= 0 {
		return fmt.Errorf("broker.initial_cash must be > 0")
	}
	return nil
}
