package config

import "os"

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9991"
	defaultAppLogPath      = "logs/mixgo.log"
	defaultMarketBaseURL   = "https://api.financialdatasets.ai"
	defaultMarketCallDelay = 150
	defaultMarketRetries   = 5
	defaultAIBaseURL       = "https://api.openai.com/v1"
	defaultAIModel         = "gpt-4o"
	defaultAITemperature   = 0.2
	defaultAIRetries       = 5
	defaultMaxPositionPct  = 0.05
	defaultMaxRiskPerTrade = 0.02
	defaultKellyMultiplier = 0.25
	defaultInitialCapital  = 100000
	defaultMarginReq       = 0.5
	defaultPrefetchLimit   = 4
	defaultBrokerMode      = "paper"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Weights.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
	c.Broker.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.api_key", &m.APIKey, os.Getenv("FINANCIAL_DATASETS_API_KEY")),
		stringFieldDefault("market.base_url", &m.BaseURL, defaultMarketBaseURL),
		fieldDefault{
			key:   "market.call_delay_ms",
			need:  func() bool { return m.CallDelayMS <= 0 },
			apply: func() { m.CallDelayMS = defaultMarketCallDelay },
		},
		fieldDefault{
			key:   "market.max_retries",
			need:  func() bool { return m.MaxRetries <= 0 },
			apply: func() { m.MaxRetries = defaultMarketRetries },
		},
	)
}

func (a *AIConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("ai.api_key", &a.APIKey, os.Getenv("OPENAI_API_KEY")),
		stringFieldDefault("ai.base_url", &a.BaseURL, defaultAIBaseURL),
		stringFieldDefault("ai.model", &a.Model, defaultAIModel),
		fieldDefault{
			key:   "ai.temperature",
			need:  func() bool { return a.Temperature <= 0 },
			apply: func() { a.Temperature = defaultAITemperature },
		},
		fieldDefault{
			key:   "ai.max_retries",
			need:  func() bool { return a.MaxRetries <= 0 },
			apply: func() { a.MaxRetries = defaultAIRetries },
		},
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "risk.max_position_pct",
			need:  func() bool { return r.MaxPositionPct <= 0 },
			apply: func() { r.MaxPositionPct = defaultMaxPositionPct },
		},
		fieldDefault{
			key:   "risk.max_risk_per_trade",
			need:  func() bool { return r.MaxRiskPerTrade <= 0 },
			apply: func() { r.MaxRiskPerTrade = defaultMaxRiskPerTrade },
		},
		fieldDefault{
			key:   "risk.kelly_multiplier",
			need:  func() bool { return r.KellyMultiplier <= 0 },
			apply: func() { r.KellyMultiplier = defaultKellyMultiplier },
		},
	)
}

func (w *WeightsConfig) applyDefaults(keys keySet) {
	if w == nil {
		return
	}
	// 权重整组缺省；只设部分权重时其余保持 0，由校验拦截零和。
	if w.Sum() <= 0 && !keys.isSet("weights.trend") && !keys.isSet("weights.momentum") {
		w.Trend = 0.25
		w.MeanReversion = 0.20
		w.Momentum = 0.25
		w.Volatility = 0.15
		w.StatArb = 0.15
	}
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "backtest.initial_capital",
			need:  func() bool { return b.InitialCapital <= 0 },
			apply: func() { b.InitialCapital = defaultInitialCapital },
		},
		fieldDefault{
			key:   "backtest.margin_requirement",
			need:  func() bool { return b.MarginRequirement <= 0 },
			apply: func() { b.MarginRequirement = defaultMarginReq },
		},
		fieldDefault{
			key:   "backtest.prefetch_limit",
			need:  func() bool { return b.PrefetchLimit <= 0 },
			apply: func() { b.PrefetchLimit = defaultPrefetchLimit },
		},
	)
}

func (b *BrokerConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("broker.mode", &b.Mode, defaultBrokerMode),
		fieldDefault{
			key:   "broker.initial_cash",
			need:  func() bool { return b.InitialCash <= 0 },
			apply: func() { b.InitialCash = defaultInitialCapital },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && *target == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
