package pricing

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PairFetcher 配对取数控制器
// 并发拉取两条腿的历史 K 线并对齐时间标签。
type PairFetcher struct {
	source Source
	logger *zap.Logger
}

// NewPairFetcher 创建配对取数控制器
func NewPairFetcher(source Source, logger *zap.Logger) *PairFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PairFetcher{source: source, logger: logger}
}

// fetchResult 单腿拉取结果
type fetchResult struct {
	symbol string
	prices *HistoricalPrices
	err    error
}

// Fetch 拉取并对齐一对资产的历史价格
// 两腿各起一个 goroutine 并发拉取，任一腿失败则整体失败。
func (f *PairFetcher) Fetch(ctx context.Context, criteria DataCriteria) (*PairPrices, error) {
	if !criteria.Interval.Valid() {
		return nil, fmt.Errorf("非法 K 线周期: %s", criteria.Interval)
	}

	results := make(chan fetchResult, 2)
	for _, symbol := range []string{criteria.Asset0, criteria.Asset1} {
		go func(sym string) {
			prices, err := f.source.FetchCandles(ctx, sym, criteria.Interval)
			results <- fetchResult{symbol: sym, prices: prices, err: err}
		}(symbol)
	}

	bySymbol := make(map[string]*HistoricalPrices, 2)
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			return nil, fmt.Errorf("拉取 %s 历史价格失败: %w", res.symbol, res.err)
		}
		bySymbol[res.symbol] = res.prices
	}

	pair, err := MatchSeries(bySymbol[criteria.Asset0], bySymbol[criteria.Asset1])
	if err != nil {
		return nil, fmt.Errorf("对齐 %s/%s 序列失败: %w", criteria.Asset0, criteria.Asset1, err)
	}

	if pair.Truncated > 0 {
		f.logger.Warn("序列长度不一致，已截断对齐",
			zap.String("asset_0", criteria.Asset0),
			zap.String("asset_1", criteria.Asset1),
			zap.Int("truncated", pair.Truncated),
			zap.Int("bars", len(pair.Labels)))
	}

	f.logger.Info("配对价格拉取完成",
		zap.String("exchange", f.source.Name()),
		zap.String("asset_0", criteria.Asset0),
		zap.String("asset_1", criteria.Asset1),
		zap.String("interval", criteria.Interval.String()),
		zap.Int("bars", len(pair.Labels)))

	return pair, nil
}
