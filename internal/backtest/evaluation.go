package backtest

import "math"

// 评估口径参数
const (
	// annualTradingDays 年化周期数（按日线）
	annualTradingDays = 252.0
	// riskFreeRateAnnual 年化无风险利率
	riskFreeRateAnnual = 0.015
)

// Metrics 回测评估指标
// 标量指标保留 2 位小数（meanReturn 3 位），
// drawdowns 序列 3 位、equityCurve 序列 4 位。
type Metrics struct {
	// ARR 年化收益率 (1+meanReturn)^252 − 1
	ARR float64 `json:"arr"`
	// Drawdowns 逐点回撤序列（非正值）
	Drawdowns []float64 `json:"drawdowns"`
	// EquityCurve 累计归一收益序列
	EquityCurve []float64 `json:"equity_curve"`
	// MaxDrawdown 最大回撤（取负号）
	MaxDrawdown float64 `json:"max_drawdown"`
	// MeanReturn 非零对数收益的几何均值（简单收益口径）
	MeanReturn float64 `json:"mean_return"`
	// SharpeRatio 年化夏普比率
	SharpeRatio float64 `json:"sharpe_ratio"`
	// SortinoRatio 年化索提诺比率
	SortinoRatio float64 `json:"sortino_ratio"`
	// TotalReturn 期末累计归一收益
	TotalReturn float64 `json:"total_return"`
	// WinRateStats 胜率统计
	WinRateStats WinRate `json:"win_rate_stats"`
}

// evaluation 评估中间态
type evaluation struct {
	logReturns     []float64
	cumNormReturns []float64
	winRateStats   WinRate
}

func newEvaluation(logReturns, cumNormReturns []float64, winRateStats WinRate) *evaluation {
	return &evaluation{
		logReturns:     logReturns,
		cumNormReturns: cumNormReturns,
		winRateStats:   winRateStats,
	}
}

// meanReturn 非零对数收益的均值，exp 转为简单收益
// 全零时为 0。
func (e *evaluation) meanReturn() float64 {
	var sum float64
	var count int
	for _, r := range e.logReturns {
		if r != 0 {
			sum += r
			count++
		}
	}
	logRet := 0.0
	if count > 0 {
		logRet = sum / float64(count)
	}
	return math.Exp(logRet) - 1
}

// annualRateOfReturn 年化收益率
func (e *evaluation) annualRateOfReturn() float64 {
	return math.Pow(1+e.meanReturn(), annualTradingDays) - 1
}

// drawdowns 逐点回撤：峰值从首元素起跟踪，输出 −(峰值−当前)
func (e *evaluation) drawdowns() []float64 {
	if len(e.cumNormReturns) == 0 {
		return nil
	}
	out := make([]float64, 0, len(e.cumNormReturns))
	maxSoFar := e.cumNormReturns[0]
	for _, r := range e.cumNormReturns {
		if r > maxSoFar {
			maxSoFar = r
		}
		out = append(out, -(maxSoFar - r))
	}
	return out
}

// sharpeRatio 年化夏普比率
// 总体方差（除以 n）；空序列或零方差时为 0。
func (e *evaluation) sharpeRatio() float64 {
	n := float64(len(e.logReturns))
	if n == 0 {
		return 0
	}

	riskFreeDaily := math.Pow(1+riskFreeRateAnnual, 1/annualTradingDays) - 1

	var mean float64
	for _, r := range e.logReturns {
		mean += r
	}
	mean /= n
	adjustedMean := mean - riskFreeDaily

	var variance float64
	for _, r := range e.logReturns {
		variance += (r - mean) * (r - mean)
	}
	variance /= n
	if variance == 0 {
		return 0
	}

	return adjustedMean * math.Sqrt(annualTradingDays) / math.Sqrt(variance)
}

// sortinoRatio 年化索提诺比率
// 下行偏差只累计低于日度无风险利率的收益，分母仍除以全样本 n。
func (e *evaluation) sortinoRatio() float64 {
	n := float64(len(e.logReturns))
	if n == 0 {
		return 0
	}

	riskFreeDaily := math.Pow(1+riskFreeRateAnnual, 1/annualTradingDays) - 1

	var mean float64
	for _, r := range e.logReturns {
		mean += r
	}
	mean /= n
	adjustedMean := mean - riskFreeDaily

	var downside float64
	for _, r := range e.logReturns {
		if r < riskFreeDaily {
			downside += (r - riskFreeDaily) * (r - riskFreeDaily)
		}
	}
	downside /= n
	if downside == 0 {
		return 0
	}

	return adjustedMean * math.Sqrt(annualTradingDays) / math.Sqrt(downside)
}

// totalReturn 期末累计归一收益
func (e *evaluation) totalReturn() float64 {
	if len(e.cumNormReturns) == 0 {
		return 0
	}
	return e.cumNormReturns[len(e.cumNormReturns)-1]
}

// maxDrawdown 基于独立复利净值曲线的最大回撤（正值）
func (e *evaluation) maxDrawdown() float64 {
	if len(e.logReturns) == 0 {
		return 0
	}

	equityCurve := make([]float64, len(e.logReturns))
	state := 1.0
	for i, r := range e.logReturns {
		state *= math.Exp(r)
		equityCurve[i] = state
	}

	maxDrawdown := 0.0
	peak := equityCurve[0]
	for _, v := range equityCurve {
		if v > peak {
			peak = v
		}
		drawdown := (peak - v) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// metrics 汇总评估指标并按口径舍入
func (e *evaluation) metrics() *Metrics {
	drawdowns := e.drawdowns()
	for i := range drawdowns {
		drawdowns[i] = roundFloat(drawdowns[i], 3)
	}

	equityCurve := make([]float64, len(e.cumNormReturns))
	for i, r := range e.cumNormReturns {
		equityCurve[i] = roundFloat(r, 4)
	}

	return &Metrics{
		ARR:          roundFloat(e.annualRateOfReturn(), 2),
		Drawdowns:    drawdowns,
		EquityCurve:  equityCurve,
		MaxDrawdown:  -roundFloat(e.maxDrawdown(), 2),
		MeanReturn:   roundFloat(e.meanReturn(), 3),
		SharpeRatio:  roundFloat(e.sharpeRatio(), 2),
		SortinoRatio: roundFloat(e.sortinoRatio(), 2),
		TotalReturn:  roundFloat(e.totalReturn(), 2),
		WinRateStats: e.winRateStats,
	}
}
