// Package analysis 将统计计算与回测串联为完整的配对分析。
// 输入对齐后的配对价格，输出统计量、回测指标与快速统计对比。
package analysis

import (
	"fmt"

	"pairs-trading-analyzer/internal/backtest"
	"pairs-trading-analyzer/internal/pricing"
	"pairs-trading-analyzer/internal/stats/coint"
	"pairs-trading-analyzer/internal/stats/pairstats"
)

// PairAnalysis 完整配对分析结果
type PairAnalysis struct {
	// Prices 对齐后的配对价格
	Prices *pricing.PairPrices `json:"prices"`
	// Stats 统计量
	Stats *pairstats.Statistics `json:"stats"`
	// Metrics 回测指标
	Metrics *backtest.Metrics `json:"bt_metrics"`
}

// FullAnalysis 对配对价格执行统计计算与回测
// 回测触发指标序列取自统计结果：zscore 用 z-score 序列，spread 用价差序列。
func FullAnalysis(pair *pricing.PairPrices, statsCriteria pairstats.Criteria, btCriteria backtest.Criteria) (*PairAnalysis, error) {
	stats, err := pairstats.Calculate(pair.Series0, pair.Series1, statsCriteria)
	if err != nil {
		return nil, fmt.Errorf("统计计算失败: %w", err)
	}

	switch btCriteria.TriggerIndicator {
	case backtest.TriggerZScore:
		btCriteria.IndicatorValues = stats.ZScore
	case backtest.TriggerSpread:
		btCriteria.IndicatorValues = stats.Spread
	default:
		return nil, fmt.Errorf("非法触发指标: %q", btCriteria.TriggerIndicator)
	}

	bt, err := backtest.New(pair.Series0, pair.Series1, btCriteria)
	if err != nil {
		return nil, fmt.Errorf("回测构建失败: %w", err)
	}
	metrics, err := bt.Run()
	if err != nil {
		return nil, fmt.Errorf("回测执行失败: %w", err)
	}

	return &PairAnalysis{Prices: pair, Stats: stats, Metrics: metrics}, nil
}

// QuickStats 单一价差口径的快速统计
type QuickStats struct {
	// Spread 价差序列
	Spread []float64 `json:"spread"`
	// ZScore 滚动 z-score 序列
	ZScore []float64 `json:"zscore"`
	// HedgeRatio 对冲比率
	HedgeRatio float64 `json:"hedge_ratio"`
	// HalfLife 均值回归半衰期
	HalfLife float64 `json:"half_life"`
}

// StatsComparison 静态与动态价差口径的并排对比
type StatsComparison struct {
	// Static 静态价差口径统计
	Static QuickStats `json:"stats_static"`
	// Dynamic 动态价差口径统计
	Dynamic QuickStats `json:"stats_dynamic"`
	// Coint Engle-Granger 协整检验结果
	Coint *coint.Result `json:"coint"`
	// Corr Pearson 相关系数
	Corr float64 `json:"corr"`
}

// CompareStats 同时用静态和动态价差计算快速统计
// 两种口径各算一份价差、z-score 与半衰期，另附协整与相关性。
func CompareStats(pair *pricing.PairPrices, zscoreWindow int) (*StatsComparison, error) {
	spreadStatic, hrStatic, err := pairstats.StaticSpread(pair.Series0, pair.Series1)
	if err != nil {
		return nil, fmt.Errorf("静态价差计算失败: %w", err)
	}
	spreadDynamic, hrDynamic, err := pairstats.DynamicSpread(pair.Series0, pair.Series1)
	if err != nil {
		return nil, fmt.Errorf("动态价差计算失败: %w", err)
	}

	zscoreStatic, err := pairstats.RollingZScore(spreadStatic, zscoreWindow)
	if err != nil {
		return nil, fmt.Errorf("静态 z-score 计算失败: %w", err)
	}
	zscoreDynamic, err := pairstats.RollingZScore(spreadDynamic, zscoreWindow)
	if err != nil {
		return nil, fmt.Errorf("动态 z-score 计算失败: %w", err)
	}

	hlStatic, err := pairstats.HalfLifeMeanReversion(spreadStatic)
	if err != nil {
		return nil, fmt.Errorf("静态半衰期计算失败: %w", err)
	}
	hlDynamic, err := pairstats.HalfLifeMeanReversion(spreadDynamic)
	if err != nil {
		return nil, fmt.Errorf("动态半衰期计算失败: %w", err)
	}

	cointRes, err := coint.Test(pair.Series0, pair.Series1)
	if err != nil {
		return nil, fmt.Errorf("协整检验失败: %w", err)
	}
	corr, err := pairstats.PearsonCorrelation(pair.Series0, pair.Series1)
	if err != nil {
		return nil, fmt.Errorf("相关性计算失败: %w", err)
	}

	return &StatsComparison{
		Static: QuickStats{
			Spread:     spreadStatic,
			ZScore:     zscoreStatic,
			HedgeRatio: hrStatic,
			HalfLife:   hlStatic,
		},
		Dynamic: QuickStats{
			Spread:     spreadDynamic,
			ZScore:     zscoreDynamic,
			HedgeRatio: hrDynamic,
			HalfLife:   hlDynamic,
		},
		Coint: cointRes,
		Corr:  corr,
	}, nil
}
