// Package coint 实现 Engle-Granger 两步法协整检验。
// 第一步对两条价格序列做 OLS 回归取残差，
// 第二步对残差差分做 ADF 回归得到 t 统计量，
// 再经 MacKinnon 近似表得到临界值与 p 值。
package coint

import (
	"errors"
	"fmt"
	"math"

	"pairs-trading-analyzer/internal/stats/mackinnon"
	"pairs-trading-analyzer/internal/stats/regression"
)

// ErrSeriesTooShort 序列太短，无法做差分回归
var ErrSeriesTooShort = errors.New("序列长度不足以进行协整检验")

// Result 协整检验结果
type Result struct {
	// IsCoint 是否判定为协整
	// 判定条件: t 统计量 < 5% 临界值 且 p 值 < 0.05
	IsCoint bool `json:"is_coint"`
	// TestStatistic ADF t 统计量
	TestStatistic float64 `json:"test_statistic"`
	// CriticalValues 1%/5%/10% 临界值
	CriticalValues [3]float64 `json:"critical_values"`
	// PValue MacKinnon 近似 p 值
	PValue float64 `json:"p_value"`
}

// adfStatistic 计算残差序列的 ADF t 统计量
// 将差分残差对滞后残差水平做回归（去均值形式，含截距），
// t = β̂ / se(β̂)，其中 se(β̂) = sqrt(SSE / ((n−2)·Σ(x−x̄)²))。
func adfStatistic(residuals, residualsDiff []float64) float64 {
	x := residuals[:len(residuals)-1]
	y := residualsDiff

	var xBar, yBar float64
	for _, v := range x {
		xBar += v
	}
	xBar /= float64(len(x))
	for _, v := range y {
		yBar += v
	}
	yBar /= float64(len(y))

	var betaNum, betaDenom float64
	for i := range x {
		betaNum += (x[i] - xBar) * (y[i] - yBar)
		betaDenom += (x[i] - xBar) * (x[i] - xBar)
	}
	beta := betaNum / betaDenom
	alpha := yBar - beta*xBar

	var sse float64
	for i := range x {
		yHat := alpha + beta*x[i]
		sse += (y[i] - yHat) * (y[i] - yHat)
	}

	seDenom := float64(len(y)-2) * betaDenom
	se := math.Sqrt(sse / seDenom)
	return beta / se
}

// Test 对两条序列执行 Engle-Granger 协整检验
// 参数 series0: 价格序列 0（作为因变量的对立面：回归 x）
// 参数 series1: 价格序列 1（回归 y）
// 返回: 检验统计量、临界值、p 值与协整判定。
func Test(series0, series1 []float64) (*Result, error) {
	if len(series0) < 3 || len(series1) < 3 {
		return nil, fmt.Errorf("%w: len0=%d len1=%d", ErrSeriesTooShort, len(series0), len(series1))
	}

	fit, err := regression.Linear(series0, series1)
	if err != nil {
		return nil, fmt.Errorf("协整残差回归失败: %w", err)
	}
	residuals := fit.Residuals

	residualsDiff := make([]float64, len(residuals)-1)
	for i := 1; i < len(residuals); i++ {
		residualsDiff[i-1] = residuals[i] - residuals[i-1]
	}

	tStat := adfStatistic(residuals, residualsDiff)

	cv1, cv5, cv10 := mackinnon.CriticalValues()
	pValue := mackinnon.PValue(tStat)

	return &Result{
		IsCoint:        tStat < cv5 && pValue < 0.05,
		TestStatistic:  tStat,
		CriticalValues: [3]float64{cv1, cv5, cv10},
		PValue:         pValue,
	}, nil
}
