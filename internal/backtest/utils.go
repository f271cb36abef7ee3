package backtest

import "math"

// roundFloat 四舍五入到 decimals 位小数
func roundFloat(num float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(num*multiplier) / multiplier
}

// logReturns 对数收益率序列
// withBuffer 为 true 时首位补 0，输出与输入等长；否则长度减一。
func logReturns(series []float64, withBuffer bool) []float64 {
	var rets []float64
	if withBuffer {
		rets = make([]float64, 1, len(series))
	} else {
		rets = make([]float64, 0, len(series))
	}
	for i := 1; i < len(series); i++ {
		rets = append(rets, math.Log(series[i]/series[i-1]))
	}
	return rets
}
