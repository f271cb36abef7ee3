// Package pairstats 对一对价格序列计算配对交易统计量。
// 编排对冲比率/价差（静态 OLS 或动态 Kalman）、滚动 z-score、
// 滚动相关性、滚动协整、均值回复半衰期与关系诊断。
package pairstats

import (
	"errors"
	"fmt"

	"pairs-trading-analyzer/internal/stats/kalman"
	"pairs-trading-analyzer/internal/stats/regression"
)

// ErrShapeMismatch 两条序列长度不一致
var ErrShapeMismatch = errors.New("输入序列长度不一致")

// SpreadType 价差计算方式
type SpreadType string

const (
	// SpreadStatic 静态价差：全样本 OLS 对冲比率
	SpreadStatic SpreadType = "static"
	// SpreadDynamic 动态价差：Kalman 滤波逐步估计对冲比率
	SpreadDynamic SpreadType = "dynamic"
)

// Valid 判断价差类型是否合法
func (s SpreadType) Valid() bool {
	return s == SpreadStatic || s == SpreadDynamic
}

// StaticHedgeRatio 静态对冲比率
// 将 series0 对 series1 做 OLS 回归（x=series1, y=series0），
// 返回截距与斜率（对冲比率）。
func StaticHedgeRatio(series0, series1 []float64) (intercept, hedgeRatio float64, err error) {
	fit, err := regression.Linear(series1, series0)
	if err != nil {
		return 0, 0, fmt.Errorf("静态对冲比率回归失败: %w", err)
	}
	return fit.Intercept, fit.Slope, nil
}

// StaticSpread 静态价差序列
// spread[i] = series0[i] − hedgeRatio·series1[i] − intercept
// 返回: 价差序列与标量对冲比率。
func StaticSpread(series0, series1 []float64) ([]float64, float64, error) {
	if len(series0) != len(series1) {
		return nil, 0, fmt.Errorf("%w: len0=%d len1=%d", ErrShapeMismatch, len(series0), len(series1))
	}

	intercept, hedgeRatio, err := StaticHedgeRatio(series0, series1)
	if err != nil {
		return nil, 0, err
	}

	spread := make([]float64, len(series0))
	for i := range series0 {
		spread[i] = series0[i] - hedgeRatio*series1[i] - intercept
	}
	return spread, hedgeRatio, nil
}

// DynamicSpread 动态价差序列
// spread[i] = series0[i] − hedgeRatio[i]·series1[i]，比率逐步由 Kalman 估计。
// 返回: 价差序列与末位对冲比率（标量摘要）。
func DynamicSpread(series0, series1 []float64) ([]float64, float64, error) {
	if len(series0) != len(series1) {
		return nil, 0, fmt.Errorf("%w: len0=%d len1=%d", ErrShapeMismatch, len(series0), len(series1))
	}

	ratios, err := kalman.HedgeRatios(series0, series1)
	if err != nil {
		return nil, 0, fmt.Errorf("动态对冲比率估计失败: %w", err)
	}

	spread := make([]float64, len(series0))
	for i := range series0 {
		spread[i] = series0[i] - ratios[i]*series1[i]
	}

	hedgeRatio := 0.0
	if len(ratios) > 0 {
		hedgeRatio = ratios[len(ratios)-1]
	}
	return spread, hedgeRatio, nil
}
