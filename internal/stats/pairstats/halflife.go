package pairstats

import (
	"errors"
	"fmt"
	"math"

	"pairs-trading-analyzer/internal/stats/regression"
)

// ErrSeriesTooShort 序列长度不足
var ErrSeriesTooShort = errors.New("序列长度必须大于 1")

// ErrNoMeanReversion 回归斜率过于接近零，半衰期无定义
var ErrNoMeanReversion = errors.New("回归斜率接近零，无法计算半衰期")

// HalfLifeMeanReversion 均值回复半衰期
// 将一阶差分对滞后水平做 OLS 回归，half-life = −ln2 / β₁。
// 斜率绝对值小于机器精度时返回 ErrNoMeanReversion。
// 结果以条数（bar）为单位；斜率为正时为负值，表示序列不回复。
func HalfLifeMeanReversion(series []float64) (float64, error) {
	if len(series) <= 1 {
		return 0, fmt.Errorf("%w: len=%d", ErrSeriesTooShort, len(series))
	}

	difference := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		difference[i-1] = series[i] - series[i-1]
	}
	lagged := series[:len(series)-1]

	fit, err := regression.Linear(lagged, difference)
	if err != nil {
		return 0, fmt.Errorf("半衰期回归失败: %w", err)
	}

	if math.Abs(fit.Slope) < eps {
		return 0, ErrNoMeanReversion
	}
	return -math.Ln2 / fit.Slope, nil
}

const eps = 2.220446049250313e-16
