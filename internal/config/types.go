package config

import "strings"

// Config 是 MixGo 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Market   MarketConfig   `toml:"market"`
	AI       AIConfig       `toml:"ai"`
	Risk     RiskConfig     `toml:"risk"`
	Weights  WeightsConfig  `toml:"weights"`
	Backtest BacktestConfig `toml:"backtest"`
	Broker   BrokerConfig   `toml:"broker"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// MarketConfig 描述行情数据源的访问方式。
type MarketConfig struct {
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	CallDelayMS int    `toml:"call_delay_ms"`
	MaxRetries  int    `toml:"max_retries"`
}

// AIConfig 描述推理引擎使用的模型连接。
type AIConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxRetries  int     `toml:"max_retries"`
}

// RiskConfig 控制仓位集中度与凯利折减。
type RiskConfig struct {
	MaxPositionPct  float64 `toml:"max_position_pct"`
	MaxRiskPerTrade float64 `toml:"max_risk_per_trade"`
	KellyMultiplier float64 `toml:"kelly_multiplier"`
}

// WeightsConfig 技术信号各策略的合成权重。
type WeightsConfig struct {
	Trend         float64 `toml:"trend"`
	MeanReversion float64 `toml:"mean_reversion"`
	Momentum      float64 `toml:"momentum"`
	Volatility    float64 `toml:"volatility"`
	StatArb       float64 `toml:"stat_arb"`
}

// Sum 返回权重合计，用于校验。
func (w WeightsConfig) Sum() float64 {
	return w.Trend + w.MeanReversion + w.Momentum + w.Volatility + w.StatArb
}

// BacktestConfig 描述一次回测任务。
type BacktestConfig struct {
	Tickers           []string `toml:"tickers"`
	StartDate         string   `toml:"start_date"`
	EndDate           string   `toml:"end_date"`
	InitialCapital    float64  `toml:"initial_capital"`
	MarginRequirement float64  `toml:"margin_requirement"`
	PrefetchLimit     int      `toml:"prefetch_limit"`
}

// BrokerConfig 控制纸面撮合账户。
type BrokerConfig struct {
	Mode        string  `toml:"mode"` // 目前仅支持 "paper"
	InitialCash float64 `toml:"initial_cash"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
