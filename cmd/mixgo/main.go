package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mixgo/internal/app"
	mixcfg "mixgo/internal/config"
	"mixgo/internal/logger"
)

var (
	cfgPath      string
	tickers      []string
	endDate      string
	lookbackDays int
	execute      bool
)

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "mixgo",
		Short:         "AI 驱动的多策略交易分析与回测引擎",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("MIXGO_CONFIG"), "配置文件路径（YAML）")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "对一批票执行一次当日分析",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := buildApp()
			if err != nil {
				return err
			}
			defer cleanup()

			end, err := parseEndDate(endDate)
			if err != nil {
				return err
			}
			decisions, err := a.RunAnalyze(cmd.Context(), tickers, end, lookbackDays)
			if err != nil {
				return err
			}
			if execute {
				return a.ExecuteDecisions(cmd.Context(), decisions)
			}
			return nil
		},
	}
	analyzeCmd.Flags().StringSliceVarP(&tickers, "tickers", "t", nil, "逗号分隔的 ticker 列表")
	analyzeCmd.Flags().StringVar(&endDate, "end-date", "", "分析截止日 YYYY-MM-DD，默认今天")
	analyzeCmd.Flags().IntVar(&lookbackDays, "lookback", 30, "回看天数")
	analyzeCmd.Flags().BoolVar(&execute, "execute", false, "将决策路由到纸面账户成交")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "按配置区间执行回测",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := buildApp()
			if err != nil {
				return err
			}
			defer cleanup()
			_, _, err = a.RunBacktest(cmd.Context())
			return err
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 分析服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := buildApp()
			if err != nil {
				return err
			}
			defer cleanup()

			// 配置文件热更新只调整日志级别
			if cfgPath != "" {
				if _, err := mixcfg.NewWatcher(cfgPath); err != nil {
					logger.Warnf("配置监听启动失败: %v", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.RunServe(ctx)
		},
	}

	root.AddCommand(analyzeCmd, backtestCmd, serveCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

func buildApp() (*app.App, func(), error) {
	cfg, err := mixcfg.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置失败: %w", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志文件失败: %w", err)
	}
	cleanup := func() {
		if logFile != nil {
			logFile.Close()
		}
	}

	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，模型=%s）", cfg.App.Env, cfg.AI.Model)

	a, err := app.NewApp(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("初始化应用失败: %w", err)
	}
	return a, cleanup, nil
}

func parseEndDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	end, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("end-date 非法，应为 YYYY-MM-DD: %w", err)
	}
	return end, nil
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
