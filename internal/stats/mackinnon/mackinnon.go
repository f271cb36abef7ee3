// Package mackinnon 提供 Engle-Granger 协整检验所需的 MacKinnon 近似常量。
// 包含两变量情形下的临界值表（MacKinnon 2010）与 p 值多项式系数
// （MacKinnon 1994，经由 statsmodels adfvalues 的参数化）。
// 表内常量为已发布渐近曲面的近似，必须逐位保持一致，不可调整。
package mackinnon

import (
	"math"
)

// 两变量检验统计量的 p 值近似边界
// 超出上界 p=1，低于下界 p=0，star 为大小 p 多项式的分界点。
var (
	tauMaxC  = [6]float64{2.74, 0.92, 0.55, 0.61, 0.79, 1.0}
	tauMinC  = [6]float64{-18.83, -18.86, -23.48, -28.07, -25.96, -23.27}
	tauStarC = [6]float64{-1.61, -2.62, -3.13, -3.47, -3.78, -3.93}
)

// 小 p 值区多项式系数（升幂排列：c0 + c1·t + c2·t²）
var tauCSmallP = [6][3]float64{
	{2.1659, 1.4412, 3.8269e-2},
	{2.92, 1.5012, 3.9796e-2},
	{3.4699, 1.4856, 3.164e-2},
	{3.9673, 1.4777, 2.6315e-2},
	{4.5509, 1.5338, 2.9545e-2},
	{5.1399, 1.6036, 3.4445e-2},
}

// 大 p 值区多项式系数（升幂排列：c0 + c1·t + c2·t² + c3·t³）
var tauCLargeP = [6][4]float64{
	{1.7339, 9.3202e-1, -1.2745e-1, -1.0368e-2},
	{2.1945, 6.4695e-1, -2.9198e-1, -4.2377e-2},
	{2.5893, 4.5168e-1, -3.6529e-1, -5.0074e-2},
	{3.0387, 4.5452e-1, -3.3666e-1, -4.1921e-2},
	{3.5049, 5.2098e-1, -2.9158e-1, -3.3468e-2},
	{3.9489, 5.8933e-1, -2.5359e-1, -2.721e-2},
}

// MacKinnon 2010 渐近临界值曲面（带常数项情形）
// 每个区块对应一个变量数，区块内三行分别为 1%/5%/10%，
// 首列为渐近临界值，其余为有限样本修正项（本实现只使用首列）。
var tauC2010 = [12][3][4]float64{
	{{-3.43035, -6.5393, -16.786, -79.433},
		{-2.86154, -2.8903, -4.234, -40.040},
		{-2.56677, -1.5384, -2.809, 0.0}},
	{{-3.89644, -10.9519, -33.527, 0.0},
		{-3.33613, -6.1101, -6.823, 0.0},
		{-3.04445, -4.2412, -2.720, 0.0}},
	{{-4.29374, -14.4354, -33.195, 47.433},
		{-3.74066, -8.5632, -10.852, 27.982},
		{-3.45218, -6.2143, -3.718, 0.0}},
	{{-4.64332, -18.1031, -37.972, 0.0},
		{-4.09600, -11.2349, -11.175, 0.0},
		{-3.81020, -8.3931, -4.137, 0.0}},
	{{-4.95756, -21.8883, -45.142, 0.0},
		{-4.41519, -14.0405, -12.575, 0.0},
		{-4.13157, -10.7417, -3.784, 0.0}},
	{{-5.24568, -25.6688, -57.737, 88.639},
		{-4.70693, -16.9178, -17.492, 60.007},
		{-4.42501, -13.1875, -5.104, 27.877}},
	{{-5.51233, -29.5760, -69.398, 164.295},
		{-4.97684, -19.9021, -22.045, 110.761},
		{-4.69648, -15.7315, -5.104, 27.877}},
	{{-5.76202, -33.5258, -82.189, 256.289},
		{-5.22924, -23.0023, -24.646, 144.479},
		{-4.95007, -18.3959, -7.344, 94.872}},
	{{-5.99742, -37.6572, -87.365, 248.316},
		{-5.46697, -26.2057, -26.627, 176.382},
		{-5.18897, -21.1377, -9.484, 172.704}},
	{{-6.22103, -41.7154, -102.680, 389.33},
		{-5.69244, -29.4521, -30.994, 251.016},
		{-5.41533, -24.0006, -7.514, 163.049}},
	{{-6.43377, -46.0084, -106.809, 352.752},
		{-5.90714, -32.8336, -30.275, 249.994},
		{-5.63086, -26.9693, -4.083, 151.427}},
	{{-6.63790, -50.2095, -124.156, 579.622},
		{-6.11279, -36.2681, -32.505, 314.802},
		{-5.83724, -29.9864, -2.686, 184.116}},
}

// nVars 本实现固定为两变量协整检验
const nVars = 2

// polyval 计算升幂多项式 c0 + c1·x + c2·x² + …
func polyval(coeffs []float64, x float64) float64 {
	res := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		res = res*x + coeffs[i]
	}
	return res
}

// normCDF 标准正态分布累积函数
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// PValue 由 ADF t 统计量计算协整检验 p 值（两变量情形）
// t 超过上界时 p=1，低于下界时 p=0；
// 否则按 t 与分界点的关系选择小/大 p 值多项式求值，再映射到标准正态 CDF。
func PValue(tStat float64) float64 {
	if tStat > tauMaxC[nVars-1] {
		return 1.0
	}
	if tStat < tauMinC[nVars-1] {
		return 0.0
	}

	if tStat <= tauStarC[nVars-1] {
		return normCDF(polyval(tauCSmallP[nVars-1][:], tStat))
	}
	return normCDF(polyval(tauCLargeP[nVars-1][:], tStat))
}

// CriticalValues 两变量协整检验的渐近临界值
// 返回: 1%、5%、10% 三档临界值
func CriticalValues() (cv1, cv5, cv10 float64) {
	block := tauC2010[0]
	return block[0][0], block[1][0], block[2][0]
}
