package pairstats

import (
	"errors"
	"fmt"
	"math"

	"pairs-trading-analyzer/internal/stats/coint"
)

// ErrWindowTooLarge 滚动窗口超过序列长度
var ErrWindowTooLarge = errors.New("滚动窗口大于序列长度")

// ErrZeroVariance 窗口内标准差恰好为零，z-score 无定义
var ErrZeroVariance = errors.New("窗口标准差为零")

// RollingZScore 滚动 z-score
// 输出与输入等长；前 window 个元素固定为 0（左侧填充，不参与计算）。
// 对 i ≥ window，窗口为 series[i−window, i)（不含当前点），
// z = (series[i] − 窗口均值) / 窗口样本标准差（分母 n−1）。
// 窗口标准差恰好为零时返回 ErrZeroVariance。
func RollingZScore(series []float64, window int) ([]float64, error) {
	if window > len(series) {
		return nil, fmt.Errorf("%w: window=%d len=%d", ErrWindowTooLarge, window, len(series))
	}

	zscores := make([]float64, window, len(series))

	for i := window; i < len(series); i++ {
		win := series[i-window : i]

		var mean float64
		for _, v := range win {
			mean += v
		}
		mean /= float64(len(win))

		var variance float64
		for _, v := range win {
			d := v - mean
			variance += d * d
		}
		variance /= float64(len(win) - 1)

		stdDev := math.Sqrt(variance)
		if stdDev == 0 {
			return nil, fmt.Errorf("%w: i=%d window=%d", ErrZeroVariance, i, window)
		}

		zscores = append(zscores, (series[i]-mean)/stdDev)
	}
	return zscores, nil
}

// RollingCorrelation 滚动 Pearson 相关系数
// 输出与输入等长，前 window 个元素为 0；窗口不含当前点。
func RollingCorrelation(series0, series1 []float64, window int) ([]float64, error) {
	if len(series0) != len(series1) {
		return nil, fmt.Errorf("%w: len0=%d len1=%d", ErrShapeMismatch, len(series0), len(series1))
	}
	if window > len(series0) {
		return nil, fmt.Errorf("%w: window=%d len=%d", ErrWindowTooLarge, window, len(series0))
	}

	correlations := make([]float64, window, len(series0))

	for i := window; i < len(series0); i++ {
		corr, err := PearsonCorrelation(series0[i-window:i], series1[i-window:i])
		if err != nil {
			return nil, fmt.Errorf("滚动相关计算失败 (i=%d): %w", i, err)
		}
		correlations = append(correlations, corr)
	}
	return correlations, nil
}

// RollingCointegration 滚动协整
// 对每个窗口执行协整检验，输出 (5% 临界值 − t 统计量)，
// 正值表示检验统计量越过临界值的程度。
// 输出与输入等长，前 window 个元素为 0；窗口不含当前点。
func RollingCointegration(series0, series1 []float64, window int) ([]float64, error) {
	if len(series0) != len(series1) {
		return nil, fmt.Errorf("%w: len0=%d len1=%d", ErrShapeMismatch, len(series0), len(series1))
	}
	if window > len(series0) {
		return nil, fmt.Errorf("%w: window=%d len=%d", ErrWindowTooLarge, window, len(series0))
	}

	distances := make([]float64, window, len(series0))

	for i := window; i < len(series0); i++ {
		res, err := coint.Test(series0[i-window:i], series1[i-window:i])
		if err != nil {
			return nil, fmt.Errorf("滚动协整计算失败 (i=%d): %w", i, err)
		}
		cv5 := res.CriticalValues[1]
		distances = append(distances, -(res.TestStatistic - cv5))
	}
	return distances, nil
}
