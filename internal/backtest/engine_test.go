// Package backtest 信号状态机与收益计算测试
package backtest

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

// trendPair 构造平缓漂移的价格对
func trendPair(n int) ([]float64, []float64) {
	s0 := make([]float64, n)
	s1 := make([]float64, n)
	for i := 0; i < n; i++ {
		s0[i] = 100 + float64(i)*0.1
		s1[i] = 50 + float64(i)*0.05
	}
	return s0, s1
}

func TestMetricsJSON_NoTrades(t *testing.T) {
	// 指标从未触及开仓阈值：win_rate 为 NaN（0/0），
	// 整体指标仍须可序列化，win_rate 输出 null
	n := 15
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)

	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	m, err := bt.Run()
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if !math.IsNaN(m.WinRateStats.Rate) {
		t.Fatalf("Rate=%v, want NaN", m.WinRateStats.Rate)
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("序列化评估指标失败: %v", err)
	}
	if !strings.Contains(string(b), `"win_rate":null`) {
		t.Fatalf("win_rate 未输出 null: %s", b)
	}
	if !strings.Contains(string(b), `"closed":0`) {
		t.Fatalf("closed 计数缺失: %s", b)
	}
}

func TestMetricsJSON_WithTrades(t *testing.T) {
	// 有平仓时 win_rate 按数值输出
	n := 20
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	for i := range indicator {
		indicator[i] = -1.0
	}
	indicator[10] = -2.0
	indicator[11] = 0.0

	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	m, err := bt.Run()
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("序列化评估指标失败: %v", err)
	}
	if strings.Contains(string(b), `"win_rate":null`) {
		t.Fatalf("有平仓时 win_rate 不应为 null: %s", b)
	}
	if !strings.Contains(string(b), `"closed":1`) {
		t.Fatalf("closed 计数异常: %s", b)
	}
}

func TestTransition_SingleSteps(t *testing.T) {
	s0, s1 := trendPair(20)
	indicator := make([]float64, 20)
	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	// 空仓 + 闸门放行 + 指标触及开多阈值 → 开多
	st, out := bt.transition(fsmState{last: Flat}, stepInput{indicator: -2.0, relationOK: true})
	if out.signal != Long || !st.isOpen || st.opened != 1 {
		t.Fatalf("开多转移异常: signal=%d isOpen=%v opened=%d", out.signal, st.isOpen, st.opened)
	}
	if out.openCost != bt.criteria.CostPerLeg*2 {
		t.Fatalf("openCost=%v, want %v", out.openCost, bt.criteria.CostPerLeg*2)
	}

	// 持多 + 指标回到平多阈值 → 平仓
	st, out = bt.transition(st, stepInput{indicator: 0.0})
	if out.signal != Flat || st.isOpen || st.closed != 1 {
		t.Fatalf("平多转移异常: signal=%d isOpen=%v closed=%d", out.signal, st.isOpen, st.closed)
	}
	if out.closeCost != bt.criteria.CostPerLeg*2 {
		t.Fatalf("closeCost=%v, want %v", out.closeCost, bt.criteria.CostPerLeg*2)
	}

	// 闸门未放行时不开仓
	st, out = bt.transition(fsmState{last: Flat}, stepInput{indicator: -2.0, relationOK: false})
	if out.signal != Flat || st.isOpen {
		t.Fatalf("闸门未放行仍开仓: signal=%d isOpen=%v", out.signal, st.isOpen)
	}

	// 止损：跟踪盈亏触及下限强制平仓（指标未触及平仓阈值）
	slCriteria := DefaultCriteria(indicator)
	slCriteria.StopLoss = -0.1
	btSL, err := New(s0, s1, slCriteria)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	open := fsmState{isOpen: true, last: Short, trackedProfit: -0.2, opened: 1}
	st, out = btSL.transition(open, stepInput{indicator: 0.5})
	if out.signal != Flat || st.isOpen || st.closed != 1 {
		t.Fatalf("止损未强制平仓: signal=%d isOpen=%v closed=%d", out.signal, st.isOpen, st.closed)
	}
}

func TestCreateSignals_OpenAndCloseLong(t *testing.T) {
	// 指标在 bar 10 触及 −2.0 开多，bar 11 回到 0.0 平多
	n := 20
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	for i := range indicator {
		indicator[i] = -1.0
	}
	indicator[10] = -2.0
	indicator[11] = 0.0

	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	signals, costs, wr, err := bt.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}

	if wr.Opened != 1 || wr.Closed != 1 {
		t.Fatalf("opened=%d closed=%d, want 1/1", wr.Opened, wr.Closed)
	}
	if len(signals) != n || len(costs) != n {
		t.Fatalf("len(signals)=%d len(costs)=%d, want %d", len(signals), len(costs), n)
	}

	// 右移一位后首位必为 0，持仓出现在 bar 11
	if signals[0] != Flat {
		t.Fatalf("signals[0]=%d, want Flat", signals[0])
	}
	if signals[11] != Long {
		t.Fatalf("signals[11]=%d, want Long", signals[11])
	}
	if signals[12] != Flat {
		t.Fatalf("signals[12]=%d, want Flat", signals[12])
	}
}

func TestCreateSignals_ShortSide(t *testing.T) {
	n := 20
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	indicator[5] = 2.0
	indicator[8] = -0.5

	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	signals, _, wr, err := bt.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}
	if wr.Opened != 1 || wr.Closed != 1 {
		t.Fatalf("opened=%d closed=%d, want 1/1", wr.Opened, wr.Closed)
	}
	if signals[6] != Short {
		t.Fatalf("signals[6]=%d, want Short", signals[6])
	}
}

func TestCreateSignals_StopLossForcesClose(t *testing.T) {
	// bar 10 开多后 series0 于 bar 11 大跌，bar 12 跟踪收益触及止损强制平仓
	n := 20
	s0, s1 := trendPair(n)
	s0[11] = s0[10] * 0.95
	for i := 12; i < n; i++ {
		s0[i] = s0[11]
	}

	indicator := make([]float64, n)
	for i := range indicator {
		indicator[i] = -1.0
	}
	indicator[10] = -2.0

	c := DefaultCriteria(indicator)
	c.StopLoss = -0.01

	bt, err := New(s0, s1, c)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	_, _, wr, err := bt.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}
	if wr.Opened != 1 {
		t.Fatalf("opened=%d, want 1", wr.Opened)
	}
	if wr.Closed != 1 {
		t.Fatalf("closed=%d, want 1（止损强制平仓）", wr.Closed)
	}
	if wr.ClosedProfit != 0 {
		t.Fatalf("closedProfit=%d, want 0", wr.ClosedProfit)
	}
}

func TestCreateSignals_NoTradesWinRateNaN(t *testing.T) {
	// 无任何平仓时胜率为 0/0=NaN，保留该口径
	n := 15
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)

	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	_, _, wr, err := bt.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}
	if wr.Opened != 0 || wr.Closed != 0 {
		t.Fatalf("opened=%d closed=%d, want 0/0", wr.Opened, wr.Closed)
	}
	if !math.IsNaN(wr.Rate) {
		t.Fatalf("Rate=%v, want NaN", wr.Rate)
	}
}

func TestCreateSignals_CostsOnOpenAndClose(t *testing.T) {
	n := 20
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	for i := range indicator {
		indicator[i] = -1.0
	}
	indicator[10] = -2.0
	indicator[11] = 0.0

	c := DefaultCriteria(indicator)
	c.CostPerLeg = 0.001

	bt, err := New(s0, s1, c)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	_, costs, _, err := bt.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}

	// 开仓成本随信号右移到 bar 11，平仓成本留在 bar 11（两者叠加）
	var total float64
	for _, v := range costs {
		total += v
	}
	want := 0.001 * 2 * 2
	if math.Abs(total-want) > 1e-12 {
		t.Fatalf("成本合计=%v, want %v", total, want)
	}
}

func TestCreateSignals_RelationCoint_BlocksEarlyBars(t *testing.T) {
	// 协整闸门在不足 90 根历史时禁止开仓
	n := 60
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	indicator[10] = -2.0

	c := DefaultCriteria(indicator)
	c.Relation = RelationCoint

	bt, err := New(s0, s1, c)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	_, _, wr, err := bt.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}
	if wr.Opened != 0 {
		t.Fatalf("opened=%d, want 0（历史不足时闸门关闭）", wr.Opened)
	}
}

func TestNew_InvalidThresholds(t *testing.T) {
	n := 10
	s0, s1 := trendPair(n)

	c := DefaultCriteria(make([]float64, n))
	c.LongThresh = 2.0
	c.ShortThresh = -2.0

	if _, err := New(s0, s1, c); !errors.Is(err, ErrInvalidCriteria) {
		t.Fatalf("err=%v, want ErrInvalidCriteria", err)
	}
}

func TestNew_LengthMismatch(t *testing.T) {
	if _, err := New([]float64{1, 2, 3}, []float64{1, 2}, DefaultCriteria([]float64{0, 0, 0})); !errors.Is(err, ErrInvalidCriteria) {
		t.Fatalf("序列长度不一致应返回 ErrInvalidCriteria")
	}
}

func TestRun_FullBacktestMetrics(t *testing.T) {
	n := 40
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	for i := range indicator {
		indicator[i] = -1.0
	}
	indicator[10] = -2.0
	indicator[15] = 0.0
	indicator[20] = 2.0
	indicator[25] = -0.5

	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	m, err := bt.Run()
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if len(m.EquityCurve) != n {
		t.Fatalf("EquityCurve len=%d, want %d", len(m.EquityCurve), n)
	}
	if len(m.Drawdowns) != n {
		t.Fatalf("Drawdowns len=%d, want %d", len(m.Drawdowns), n)
	}
	if m.WinRateStats.Opened != 2 || m.WinRateStats.Closed != 2 {
		t.Fatalf("opened=%d closed=%d, want 2/2", m.WinRateStats.Opened, m.WinRateStats.Closed)
	}
	for _, d := range m.Drawdowns {
		if d > 0 {
			t.Fatalf("回撤序列出现正值: %v", d)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	n := 30
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	indicator[5] = -2.0
	indicator[12] = 0.0

	bt, err := New(s0, s1, DefaultCriteria(indicator))
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	a, err := bt.Run()
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	b, err := bt.Run()
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if a.TotalReturn != b.TotalReturn || a.ARR != b.ARR || a.SharpeRatio != b.SharpeRatio {
		t.Fatalf("相同输入两次结果不一致: %+v vs %+v", a, b)
	}
}

func TestStrategyReturns_LongSeries1FlipsLegs(t *testing.T) {
	// 多头腿换为 series1 时 series0Mul 取 −1，净收益符号随之翻转
	n := 20
	s0, s1 := trendPair(n)
	indicator := make([]float64, n)
	indicator[5] = -2.0

	c0 := DefaultCriteria(indicator)
	c1 := DefaultCriteria(indicator)
	c1.LongSeries = LongSeries1
	c0.CostPerLeg = 0
	c1.CostPerLeg = 0

	bt0, err := New(s0, s1, c0)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	bt1, err := New(s0, s1, c1)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	sig0, costs0, _, err := bt0.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}
	sig1, costs1, _, err := bt1.createSignals()
	if err != nil {
		t.Fatalf("createSignals 失败: %v", err)
	}

	net0, _ := bt0.strategyReturns(sig0, costs0)
	net1, _ := bt1.strategyReturns(sig1, costs1)

	for i := range net0 {
		if math.Abs(net0[i]+net1[i]) > 1e-12 {
			t.Fatalf("第 %d 位净收益未翻转: %v vs %v", i, net0[i], net1[i])
		}
	}
}
