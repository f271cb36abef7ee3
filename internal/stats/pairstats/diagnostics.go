package pairstats

import (
	"fmt"
	"math"

	"pairs-trading-analyzer/internal/stats/regression"
)

// 年化因子，按每日一条数据、一年 252 个交易日
const periodsPerYear = 252

// Diagnostics 配对关系诊断
// 基于两腿对数收益率的交叉 β 与年化波动率，
// 用于评估对冲权重与两腿风险是否大致对称。
type Diagnostics struct {
	// BetaS0OnS1 series0 对数收益率对 series1 对数收益率回归的斜率
	BetaS0OnS1 float64 `json:"beta_s0_on_s1"`
	// BetaS1OnS0 反方向回归的斜率
	BetaS1OnS0 float64 `json:"beta_s1_on_s0"`
	// AnnualVol0 series0 对数收益率年化波动率
	AnnualVol0 float64 `json:"annual_vol_0"`
	// AnnualVol1 series1 对数收益率年化波动率
	AnnualVol1 float64 `json:"annual_vol_1"`
	// VolRatio AnnualVol0 / AnnualVol1
	VolRatio float64 `json:"vol_ratio"`
}

// logReturnsOf 对数收益率序列，长度为 len(series)−1
func logReturnsOf(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	rets := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		rets[i-1] = math.Log(series[i] / series[i-1])
	}
	return rets
}

// annualizedVol 样本标准差（n−1）乘以 √252
func annualizedVol(rets []float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var variance float64
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets) - 1)

	return math.Sqrt(variance) * math.Sqrt(periodsPerYear)
}

// RelationDiagnostics 计算配对关系诊断
func RelationDiagnostics(series0, series1 []float64) (*Diagnostics, error) {
	if len(series0) != len(series1) {
		return nil, fmt.Errorf("%w: len0=%d len1=%d", ErrShapeMismatch, len(series0), len(series1))
	}
	if len(series0) < 3 {
		return nil, fmt.Errorf("%w: len=%d", ErrSeriesTooShort, len(series0))
	}

	rets0 := logReturnsOf(series0)
	rets1 := logReturnsOf(series1)

	fit01, err := regression.Linear(rets1, rets0)
	if err != nil {
		return nil, fmt.Errorf("交叉 β 回归失败 (s0~s1): %w", err)
	}
	fit10, err := regression.Linear(rets0, rets1)
	if err != nil {
		return nil, fmt.Errorf("交叉 β 回归失败 (s1~s0): %w", err)
	}

	vol0 := annualizedVol(rets0)
	vol1 := annualizedVol(rets1)

	ratio := 0.0
	if vol1 != 0 {
		ratio = vol0 / vol1
	}

	return &Diagnostics{
		BetaS0OnS1: fit01.Slope,
		BetaS1OnS0: fit10.Slope,
		AnnualVol0: vol0,
		AnnualVol1: vol1,
		VolRatio:   ratio,
	}, nil
}
