package watch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pairs-trading-analyzer/internal/analysis"
	"pairs-trading-analyzer/internal/backtest"
	"pairs-trading-analyzer/internal/exchange/binance"
	"pairs-trading-analyzer/internal/stats/pairstats"
)

// SignalRecord 每根收盘 K 线产出的跟踪记录
type SignalRecord struct {
	// Timestamp K 线开盘时间（Unix 秒）
	Timestamp uint64 `json:"timestamp"`
	// Asset0 资产 0 符号
	Asset0 string `json:"asset_0"`
	// Asset1 资产 1 符号
	Asset1 string `json:"asset_1"`
	// Price0 资产 0 收盘价
	Price0 float64 `json:"price_0"`
	// Price1 资产 1 收盘价
	Price1 float64 `json:"price_1"`
	// ZScore 最新 z-score
	ZScore float64 `json:"zscore"`
	// Spread 最新价差
	Spread float64 `json:"spread"`
	// HedgeRatio 对冲比率
	HedgeRatio float64 `json:"hedge_ratio"`
	// CointPass 协整检验是否通过
	CointPass bool `json:"coint_pass"`
	// Suggested 建议仓位（1 多 / -1 空 / 0 平）
	Suggested int `json:"suggested"`
	// Sharpe 历史窗口回测的夏普比率
	Sharpe float64 `json:"sharpe_ratio"`
}

// RecordSink 信号记录落盘接口
// 由 jsonl.Writer 实现。
type RecordSink interface {
	Write(v any) error
}

// Watcher 实时配对跟踪器
// 单 goroutine 消费 K 线流并维护窗口，满足单写者约束。
type Watcher struct {
	// window 滚动价格窗口
	window *PairWindow
	// statsCriteria 统计参数
	statsCriteria pairstats.Criteria
	// btCriteria 回测参数
	btCriteria backtest.Criteria
	// minBars 分析所需的最少 K 线根数
	minBars int
	// sink 信号记录输出，可为 nil
	sink RecordSink
	// logger 日志记录器
	logger *zap.Logger
	// lastAnalyzed 最近一次分析的共同标签，避免重复分析
	lastAnalyzed uint64
}

// NewWatcher 创建实时配对跟踪器
// 参数 window: 预填好历史数据的价格窗口
func NewWatcher(window *PairWindow, statsCriteria pairstats.Criteria, btCriteria backtest.Criteria, sink RecordSink, logger *zap.Logger) *Watcher {
	minBars := statsCriteria.ZScoreWindow
	if statsCriteria.RollWindow > minBars {
		minBars = statsCriteria.RollWindow
	}
	// 滚动统计左补 window 个 0，再留一段有效样本
	minBars = minBars*2 + 2

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		window:        window,
		statsCriteria: statsCriteria,
		btCriteria:    btCriteria,
		minBars:       minBars,
		sink:          sink,
		logger:        logger.Named("watch"),
	}
}

// Run 消费 K 线流直到上下文取消或通道关闭
func (w *Watcher) Run(ctx context.Context, candles <-chan *binance.Candle) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case candle, ok := <-candles:
			if !ok {
				return nil
			}
			if err := w.handle(candle); err != nil {
				w.logger.Warn("处理 K 线失败", zap.Error(err))
			}
		}
	}
}

// handle 处理单根 K 线
// 仅在两腿同时收出新 K 线时触发一次分析。
func (w *Watcher) handle(candle *binance.Candle) error {
	if candle == nil {
		return nil
	}
	w.window.Upsert(candle.Symbol, candle.OpenTimeSec, candle.Close, candle.Final)

	if !candle.Final {
		return nil
	}
	ready, label := w.window.Ready(w.minBars)
	if !ready || label == w.lastAnalyzed {
		return nil
	}
	w.lastAnalyzed = label

	return w.analyze(label)
}

// analyze 对当前窗口快照执行完整分析并产出信号记录
func (w *Watcher) analyze(label uint64) error {
	pair, err := w.window.Snapshot()
	if err != nil {
		return fmt.Errorf("导出窗口快照失败: %w", err)
	}

	res, err := analysis.FullAnalysis(pair, w.statsCriteria, w.btCriteria)
	if err != nil {
		return fmt.Errorf("分析失败: %w", err)
	}

	n := len(pair.Series0)
	lastZ := res.Stats.ZScore[n-1]
	rec := SignalRecord{
		Timestamp:  label,
		Asset0:     w.window.symbol0,
		Asset1:     w.window.symbol1,
		Price0:     pair.Series0[n-1],
		Price1:     pair.Series1[n-1],
		ZScore:     lastZ,
		Spread:     res.Stats.Spread[n-1],
		HedgeRatio: res.Stats.HedgeRatio,
		CointPass:  res.Stats.Coint.IsCoint,
		Suggested:  int(w.classify(lastZ)),
		Sharpe:     res.Metrics.SharpeRatio,
	}

	if w.sink != nil {
		if err := w.sink.Write(rec); err != nil {
			return fmt.Errorf("写入信号记录失败: %w", err)
		}
	}

	w.logger.Info("配对信号更新",
		zap.Uint64("timestamp", label),
		zap.Float64("zscore", rec.ZScore),
		zap.Int("suggested", rec.Suggested),
		zap.Bool("coint_pass", rec.CointPass),
		zap.Float64("sharpe", rec.Sharpe))

	return nil
}

// classify 按开平仓阈值把最新指标值归为建议仓位
// 低于开多阈值建议做多，高于开空阈值建议做空，
// 落在平仓阈值区间内建议持平，其余区域维持观望（平）。
func (w *Watcher) classify(ind float64) backtest.Position {
	switch {
	case ind <= w.btCriteria.LongThresh:
		return backtest.Long
	case ind >= w.btCriteria.ShortThresh:
		return backtest.Short
	default:
		return backtest.Flat
	}
}
