package backtest

import (
	"encoding/json"
	"fmt"
	"math"

	"pairs-trading-analyzer/internal/stats/coint"
	"pairs-trading-analyzer/internal/stats/pairstats"
)

// 开仓关系闸门参数
const (
	// relationWindow 协整/相关检查回看窗口（bar）
	relationWindow = 90
	// corrThreshold 相关闸门的最低相关系数绝对值
	corrThreshold = 0.8
)

// Backtest 一次回测的全部输入
type Backtest struct {
	series0    []float64
	series1    []float64
	series0Mul float64
	criteria   Criteria
}

// WinRate 交易胜率统计
type WinRate struct {
	// Rate 盈利平仓次数 / 平仓次数
	// 无平仓时为 NaN（0/0），JSON 输出为 null
	Rate float64 `json:"win_rate"`
	// Opened 开仓次数
	Opened uint32 `json:"opened"`
	// Closed 平仓次数
	Closed uint32 `json:"closed"`
	// ClosedProfit 盈利平仓次数
	ClosedProfit uint32 `json:"closed_profit"`
}

// MarshalJSON 胜率序列化
// encoding/json 不支持 NaN，无平仓时 win_rate 输出 null。
func (w WinRate) MarshalJSON() ([]byte, error) {
	type winRateJSON struct {
		Rate         *float64 `json:"win_rate"`
		Opened       uint32   `json:"opened"`
		Closed       uint32   `json:"closed"`
		ClosedProfit uint32   `json:"closed_profit"`
	}
	out := winRateJSON{
		Opened:       w.Opened,
		Closed:       w.Closed,
		ClosedProfit: w.ClosedProfit,
	}
	if !math.IsNaN(w.Rate) {
		out.Rate = &w.Rate
	}
	return json.Marshal(out)
}

// New 构造回测
// 校验序列长度与阈值关系，非法时返回 ErrInvalidCriteria。
func New(series0, series1 []float64, c Criteria) (*Backtest, error) {
	if len(series0) != len(series1) {
		return nil, fmt.Errorf("%w: len0=%d len1=%d", ErrInvalidCriteria, len(series0), len(series1))
	}
	if err := c.Validate(len(series0)); err != nil {
		return nil, err
	}

	series0Mul := 1.0
	if c.LongSeries != LongSeries0 {
		series0Mul = -1.0
	}

	return &Backtest{
		series0:    series0,
		series1:    series1,
		series0Mul: series0Mul,
		criteria:   c,
	}, nil
}

// relationGate 开仓前关系检查
// Coint/Corr 需要至少 relationWindow 根历史，否则一律不开仓；
// Ignore 恒为真。
func (b *Backtest) relationGate(i int) (bool, error) {
	switch b.criteria.Relation {
	case RelationCoint:
		if i < relationWindow {
			return false, nil
		}
		res, err := coint.Test(b.series0[i-relationWindow:i], b.series1[i-relationWindow:i])
		if err != nil {
			return false, fmt.Errorf("开仓协整检查失败 (i=%d): %w", i, err)
		}
		return res.IsCoint, nil
	case RelationCorr:
		if i < relationWindow {
			return false, nil
		}
		corr, err := pairstats.PearsonCorrelation(b.series0[i-relationWindow:i], b.series1[i-relationWindow:i])
		if err != nil {
			return false, fmt.Errorf("开仓相关检查失败 (i=%d): %w", i, err)
		}
		return math.Abs(corr) >= corrThreshold, nil
	default:
		return true, nil
	}
}

// fsmState 信号状态机状态
type fsmState struct {
	// isOpen 是否持仓
	isOpen bool
	// last 当前持仓方向
	last Position
	// trackedProfit 持仓期跟踪盈亏（开/平仓各扣双腿成本）
	trackedProfit float64
	// opened/closed/closedProfit 开仓、平仓、盈利平仓计数
	opened       uint32
	closed       uint32
	closedProfit uint32
}

// stepInput 单 bar 状态机输入
type stepInput struct {
	// indicator 当前指标值
	indicator float64
	// ser0Ret/ser1Ret 双腿按方向调整后的简单收益率
	ser0Ret float64
	ser1Ret float64
	// relationOK 开仓关系闸门是否放行（仅空仓时有意义）
	relationOK bool
}

// stepOutput 单 bar 状态机输出
type stepOutput struct {
	// signal 本 bar 信号
	signal Position
	// openCost/closeCost 本 bar 开/平仓成本
	openCost  float64
	closeCost float64
}

// transition 状态机转移函数
// 纯函数：(状态, 单步输入) → (新状态, 信号, 成本)，
// 开仓判定优先于平仓判定，先多后空。
func (b *Backtest) transition(st fsmState, in stepInput) (fsmState, stepOutput) {
	costPerLeg := b.criteria.CostPerLeg

	isLongTrigger := false
	isShortTrigger := false
	if !st.isOpen && in.relationOK {
		if in.indicator <= b.criteria.LongThresh {
			isLongTrigger = true
		}
		if in.indicator >= b.criteria.ShortThresh {
			isShortTrigger = true
		}
	}

	isLongClose := false
	isShortClose := false
	if st.isOpen {
		if in.indicator >= b.criteria.LongCloseThresh && st.last == Long {
			isLongClose = true
		}
		if in.indicator <= b.criteria.ShortCloseThresh && st.last == Short {
			isShortClose = true
		}
		// 止损：跟踪收益触及下限则强制平仓
		if b.criteria.StopLoss != 0 && st.trackedProfit <= b.criteria.StopLoss {
			isLongClose = true
			isShortClose = true
		}
	}

	// 开仓
	if isLongTrigger || isShortTrigger {
		side := Long
		if !isLongTrigger {
			side = Short
		}
		st.isOpen = true
		st.last = side
		st.trackedProfit = -costPerLeg * 2
		st.opened++
		return st, stepOutput{signal: side, openCost: costPerLeg * 2}
	}

	// 平仓
	if isLongClose || isShortClose {
		st.isOpen = false
		st.last = Flat
		st.trackedProfit += -costPerLeg * 2
		if st.trackedProfit > 0 {
			st.closedProfit++
		}
		st.trackedProfit = 0
		st.closed++
		return st, stepOutput{signal: Flat, closeCost: costPerLeg * 2}
	}

	// 持仓中累计跟踪盈亏，空仓清零
	if st.isOpen {
		st.trackedProfit += in.ser0Ret + in.ser1Ret
	} else {
		st.trackedProfit = 0
	}
	return st, stepOutput{signal: st.last}
}

// createSignals 信号状态机
// 逐 bar 调用转移函数生成持仓信号与开/平仓成本序列，并统计胜率。
// 循环结束后信号与开仓成本整体右移一位（首位补 0），消除前视偏差。
func (b *Backtest) createSignals() ([]Position, []float64, WinRate, error) {
	n := len(b.criteria.IndicatorValues)

	st := fsmState{last: Flat}
	signals := make([]Position, 1, n+1)
	openCosts := make([]float64, 1, n+1)
	closeCosts := make([]float64, 1, n+1)

	for i := 1; i < n; i++ {
		relationOK := false
		if !st.isOpen {
			pass, err := b.relationGate(i)
			if err != nil {
				return nil, nil, WinRate{}, err
			}
			relationOK = pass
		}

		in := stepInput{
			indicator:  b.criteria.IndicatorValues[i],
			ser0Ret:    (b.series0[i]/b.series0[i-1] - 1) * b.series0Mul,
			ser1Ret:    (b.series1[i]/b.series1[i-1] - 1) * -b.series0Mul,
			relationOK: relationOK,
		}

		var out stepOutput
		st, out = b.transition(st, in)
		signals = append(signals, out.signal)
		openCosts = append(openCosts, out.openCost)
		closeCosts = append(closeCosts, out.closeCost)
	}

	// 右移一位消除前视偏差：丢弃末位、首位补 0
	if len(signals) > 0 {
		signals = signals[:len(signals)-1]
		signals = append([]Position{Flat}, signals...)
	}
	if len(openCosts) > 0 {
		openCosts = openCosts[:len(openCosts)-1]
		openCosts = append([]float64{0}, openCosts...)
	}

	tradingCosts := make([]float64, len(openCosts))
	for i := range openCosts {
		tradingCosts[i] = openCosts[i] + closeCosts[i]
	}

	// closed==0 时为 0/0=NaN，保留该口径
	winRate := WinRate{
		Rate:         float64(st.closedProfit) / float64(st.closed),
		Opened:       st.opened,
		Closed:       st.closed,
		ClosedProfit: st.closedProfit,
	}

	return signals, tradingCosts, winRate, nil
}

// strategyReturns 策略净对数收益率与累计归一收益
// 两腿按 RetsWeightingS0 加权（s0 权重 = 2·perc，s1 = 2−s0 权重），
// 逐 bar 扣除交易成本后累加，再按 exp(cum)−1 转为归一收益。
func (b *Backtest) strategyReturns(signals []Position, tradingCosts []float64) ([]float64, []float64) {
	s0Weight := 2 * b.criteria.RetsWeightingS0
	s1Weight := 2 - s0Weight

	logRets0 := logReturns(b.series0, true)
	logRets1 := logReturns(b.series1, true)

	netLogRets := make([]float64, len(logRets0))
	for i := range logRets0 {
		sig := float64(signals[i])
		r0 := logRets0[i] * sig * b.series0Mul * s0Weight
		r1 := logRets1[i] * sig * -b.series0Mul * s1Weight
		netLogRets[i] = r0 + r1 - tradingCosts[i]
	}

	// 止损口径调整
	// exp(x)+1 ≥ 1，阈值为负时该分支不触发；沿用历史口径
	if b.criteria.StopLoss != 0 {
		for i := range netLogRets {
			if math.Exp(netLogRets[i])+1 < b.criteria.StopLoss {
				netLogRets[i] = 0
			}
		}
	}

	cumNormRets := make([]float64, len(netLogRets))
	cum := 0.0
	for i, r := range netLogRets {
		cum += r
		cumNormRets[i] = math.Exp(cum) - 1
	}

	return netLogRets, cumNormRets
}

// Run 执行回测并返回评估指标
func (b *Backtest) Run() (*Metrics, error) {
	signals, tradingCosts, winRate, err := b.createSignals()
	if err != nil {
		return nil, err
	}
	netLogRets, cumNormRets := b.strategyReturns(signals, tradingCosts)
	eval := newEvaluation(netLogRets, cumNormRets, winRate)
	return eval.metrics(), nil
}
