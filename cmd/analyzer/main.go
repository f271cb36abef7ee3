// Package main 是配对交易分析器的入口点。
// 从交易所拉取两条资产的历史收盘价，做协整与价差统计，
// 再按阈值规则回测并输出评估指标；live 模式下继续跟踪
// 实时 K 线流，逐根重算统计并产出建议信号。
//
// 重要：本系统仅用于研究/验证，严禁真实下单。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pairs-trading-analyzer/internal/analysis"
	"pairs-trading-analyzer/internal/config"
	"pairs-trading-analyzer/internal/exchange/binance"
	"pairs-trading-analyzer/internal/exchange/bybit"
	"pairs-trading-analyzer/internal/output/jsonl"
	"pairs-trading-analyzer/internal/pricing"
	"pairs-trading-analyzer/internal/watch"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 捕获 SIGINT/SIGTERM，触发优雅退出
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("收到退出信号，开始优雅关闭")
		cancel()
	}()

	source, err := newSource(cfg)
	if err != nil {
		logger.Error("创建数据源失败", zap.Error(err))
		os.Exit(1)
	}

	// 拉取并对齐历史配对价格
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer fetchCancel()

	fetcher := pricing.NewPairFetcher(source, logger)
	pair, err := fetcher.Fetch(fetchCtx, cfg.Data)
	if err != nil {
		logger.Error("拉取配对价格失败", zap.Error(err))
		os.Exit(1)
	}

	// 历史统计与回测
	res, err := analysis.FullAnalysis(pair, cfg.Stats, cfg.Backtest)
	if err != nil {
		logger.Error("配对分析失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("配对分析完成",
		zap.String("asset_0", cfg.Data.Asset0),
		zap.String("asset_1", cfg.Data.Asset1),
		zap.Int("bars", len(pair.Series0)),
		zap.Bool("coint_pass", res.Stats.Coint.IsCoint),
		zap.Float64("arr", res.Metrics.ARR),
		zap.Float64("sharpe", res.Metrics.SharpeRatio),
		zap.Float64("total_return", res.Metrics.TotalReturn))

	resultPath := filepath.Join(cfg.Output.Dir, cfg.Output.ResultFile)
	if err := jsonl.WriteDocument(resultPath, res); err != nil {
		logger.Error("写入分析结果失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("分析结果已写出", zap.String("path", resultPath))

	if cfg.App.Mode != config.ModeLive {
		return
	}

	if err := runLive(ctx, cfg, pair, logger); err != nil && err != context.Canceled {
		logger.Error("实时跟踪退出", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("关闭完成")
}

// newSource 按配置选择历史 K 线数据源
func newSource(cfg *config.Config) (pricing.Source, error) {
	switch cfg.Data.Exchange {
	case "binance":
		return binance.NewRestClient(cfg.Rest.BaseURL, cfg.Rest.TimeoutMs, nil), nil
	case "bybit":
		return bybit.NewRestClient(cfg.Rest.BaseURL, cfg.Rest.TimeoutMs, nil), nil
	default:
		return nil, fmt.Errorf("不支持的交易所: %s", cfg.Data.Exchange)
	}
}

// runLive 启动实时 K 线流并逐根跟踪配对信号
func runLive(ctx context.Context, cfg *config.Config, pair *pricing.PairPrices, logger *zap.Logger) error {
	intervalStr, err := binance.IntervalString(cfg.Data.Interval)
	if err != nil {
		return err
	}

	var sink watch.RecordSink
	var signalsWriter *jsonl.Writer
	if cfg.Output.SignalsEnabled {
		signalsWriter, err = jsonl.NewWriter(filepath.Join(cfg.Output.Dir, cfg.Output.SignalsFile), cfg.Output.BufferSize)
		if err != nil {
			return fmt.Errorf("创建 signals writer 失败: %w", err)
		}
		sink = signalsWriter
	}

	symbols := []string{cfg.Data.Asset0, cfg.Data.Asset1}
	stream := binance.NewStreamClient(&cfg.Stream, symbols, intervalStr, logger)

	startCtx, startCancel := context.WithTimeout(ctx, 10*time.Second)
	defer startCancel()

	if err := stream.Connect(startCtx); err != nil {
		return err
	}
	if err := stream.Subscribe(); err != nil {
		return err
	}
	go stream.Run(ctx)

	// 用历史数据预填窗口，容量与回看跨度一致
	window := watch.NewPairWindow(cfg.Data.Asset0, cfg.Data.Asset1, cfg.Data.Interval.Bars())
	window.Seed(pair)

	watcher := watch.NewWatcher(window, cfg.Stats, cfg.Backtest, sink, logger)
	logger.Info("实时跟踪启动",
		zap.Strings("symbols", symbols),
		zap.String("interval", intervalStr))

	runErr := watcher.Run(ctx, stream.CandleCh())

	// 优雅关闭（10s 超时）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = stream.Close()
		if signalsWriter != nil {
			_ = signalsWriter.Close()
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Warn("关闭超时，强制退出")
	case <-done:
	}
	return runErr
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
