// Package regression 实现简单线性回归（OLS）。
// 使用闭式求和公式计算斜率与截距，无迭代，结果完全确定。
// 是协整检验、对冲比率、半衰期等上层统计的基础。
package regression

import (
	"errors"
	"fmt"
	"math"
)

// eps 浮点近零判定阈值（IEEE 754 双精度机器精度）
// 所有近零分母/方差比较统一使用该常量，不依赖语言默认相等判断。
const eps = 2.220446049250313e-16

// ErrDegenerateInput 退化输入：x 的方差为零（x 为常数序列），无法拟合
var ErrDegenerateInput = errors.New("自变量方差为零，回归退化")

// ErrShapeMismatch 输入长度不一致
var ErrShapeMismatch = errors.New("输入序列长度不一致")

// Fit 回归拟合结果
type Fit struct {
	// Intercept 截距 β₀（x 为零时 y 的预测值）
	Intercept float64
	// Slope 斜率 β₁（x 每变化一个单位 y 的变化量）
	Slope float64
	// Residuals 残差序列（实际值 - 预测值），与输入等长
	Residuals []float64
}

// Predict 计算给定 x 的拟合值
func (f *Fit) Predict(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// Linear 简单线性回归
// 参数 x: 自变量序列
// 参数 y: 因变量序列（与 x 等长，长度 ≥ 2）
// 斜率 β₁ = (n·Σxy − Σx·Σy) / (n·Σx² − (Σx)²)
// 截距 β₀ = ȳ − β₁·x̄
// 当分母绝对值低于机器精度时返回 ErrDegenerateInput。
func Linear(x, y []float64) (*Fit, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrShapeMismatch, len(x), len(y))
	}

	n := float64(len(x))
	var sumX, sumY, sumXX, sumXY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXX += x[i] * x[i]
		sumXY += x[i] * y[i]
	}

	denominator := n*sumXX - sumX*sumX
	if math.Abs(denominator) < eps {
		return nil, ErrDegenerateInput
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := sumY/n - slope*sumX/n

	residuals := make([]float64, len(x))
	for i := range x {
		residuals[i] = y[i] - (intercept + slope*x[i])
	}

	return &Fit{Intercept: intercept, Slope: slope, Residuals: residuals}, nil
}

// RSquared 决定系数 R²
// y 中可由 x 解释的方差占比，1 为完全拟合，0 为无解释力。
func RSquared(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrShapeMismatch, len(x), len(y))
	}

	n := float64(len(x))
	var sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
		sumXY += x[i] * y[i]
	}

	denom := (n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY)
	if math.Abs(denom) < eps {
		return 0, ErrDegenerateInput
	}

	r := (n*sumXY - sumX*sumY) / math.Sqrt(denom)
	return r * r, nil
}

// StandardError 估计标准误
// 回归预测精度的度量：sqrt(Σ残差² / (n−2))。
func StandardError(f *Fit) float64 {
	n := float64(len(f.Residuals))
	var ssr float64
	for _, r := range f.Residuals {
		ssr += r * r
	}
	return math.Sqrt(ssr / (n - 2.0))
}
