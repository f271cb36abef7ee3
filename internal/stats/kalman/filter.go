// Package kalman 实现动态对冲比率的标量递归估计（Kalman 形式）。
// 观测值为两腿价格之比 price0/price1，状态即对冲比率。
// 参数固定：状态转移 1，观测系数 1，过程噪声 0.0001，观测噪声 1。
// 逐步递推，每一步依赖前一步，不可按时间并行。
package kalman

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch 两条价格序列长度不一致
var ErrShapeMismatch = errors.New("价格序列长度不一致")

// 滤波器固定参数
const (
	// stateTransition 状态转移系数 A
	stateTransition = 1.0
	// observationCoef 观测系数 B
	observationCoef = 1.0
	// processNoise 过程噪声方差 Q
	processNoise = 0.0001
	// observationNoise 观测噪声方差 R
	observationNoise = 1.0
)

// HedgeRatios 对两条价格序列做动态对冲比率估计
// 初始状态 0，初始估计方差 1。每一步：
//   - 预测: x̂ = A·x, P = A·P·A + Q
//   - 更新: K = P·B / (B·P·B + R), x = x̂ + K·(y − B·x̂), P = (1 − K·B)·P
//
// 返回: 与输入等长的对冲比率序列，末位为标量摘要值。
func HedgeRatios(series0, series1 []float64) ([]float64, error) {
	if len(series0) != len(series1) {
		return nil, fmt.Errorf("%w: len0=%d len1=%d", ErrShapeMismatch, len(series0), len(series1))
	}

	ratios := make([]float64, 0, len(series0))

	p := 1.0 // 估计方差
	x := 0.0 // 状态（对冲比率估计）

	for i := range series0 {
		y := series0[i] / series1[i] // 观测值

		// 预测
		xHat := stateTransition * x
		p = stateTransition*p*stateTransition + processNoise

		// 更新
		k := p * observationCoef / (observationCoef*p*observationCoef + observationNoise)
		x = xHat + k*(y-observationCoef*xHat)
		p = (1.0 - k*observationCoef) * p

		ratios = append(ratios, x)
	}

	return ratios, nil
}
