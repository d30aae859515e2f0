package app

import (
	"mixgo/internal/analyst"
	"mixgo/internal/analyst/technical"
	mixcfg "mixgo/internal/config"
)

// technicalWeights 把配置权重映射到技术信号源；整组为零时
// 回退默认权重。
func technicalWeights(w mixcfg.WeightsConfig) technical.Weights {
	if w.Sum() <= 0 {
		return technical.DefaultWeights()
	}
	return technical.Weights{
		Trend:         w.Trend,
		MeanReversion: w.MeanReversion,
		Momentum:      w.Momentum,
		Volatility:    w.Volatility,
		StatArb:       w.StatArb,
	}
}

func technicalAgent(w technical.Weights) analyst.Source {
	return technical.NewAgent(w)
}
