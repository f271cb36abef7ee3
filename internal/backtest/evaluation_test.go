// Package backtest 评估指标测试
package backtest

import (
	"math"
	"testing"
)

func TestEvaluation_MeanReturn_FiltersZeros(t *testing.T) {
	// 均值只统计非零对数收益
	e := newEvaluation([]float64{0, 0.1, 0, -0.05, 0}, nil, WinRate{})

	want := math.Exp((0.1-0.05)/2) - 1
	if math.Abs(e.meanReturn()-want) > 1e-12 {
		t.Fatalf("meanReturn=%v, want %v", e.meanReturn(), want)
	}
}

func TestEvaluation_MeanReturn_AllZero(t *testing.T) {
	e := newEvaluation([]float64{0, 0, 0}, nil, WinRate{})
	if e.meanReturn() != 0 {
		t.Fatalf("meanReturn=%v, want 0", e.meanReturn())
	}
}

func TestEvaluation_Drawdowns(t *testing.T) {
	cum := []float64{0.1, 0.05, 0.2, 0.15}
	e := newEvaluation(nil, cum, WinRate{})

	got := e.drawdowns()
	want := []float64{0, -0.05, 0, -0.05}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("drawdowns[%d]=%v, want %v", i, got[i], want[i])
		}
	}
}

func TestEvaluation_MaxDrawdown(t *testing.T) {
	// 净值 2 → 1：回撤 50%
	e := newEvaluation([]float64{math.Ln2, math.Log(0.5)}, nil, WinRate{})

	if math.Abs(e.maxDrawdown()-0.5) > 1e-12 {
		t.Fatalf("maxDrawdown=%v, want 0.5", e.maxDrawdown())
	}
}

func TestEvaluation_SharpeZeroVariance(t *testing.T) {
	e := newEvaluation([]float64{0.01, 0.01, 0.01}, nil, WinRate{})
	if e.sharpeRatio() != 0 {
		t.Fatalf("零方差时 sharpe=%v, want 0", e.sharpeRatio())
	}
}

func TestEvaluation_SortinoNoDownside(t *testing.T) {
	// 无低于日度无风险利率的收益时索提诺为 0
	e := newEvaluation([]float64{0.01, 0.02, 0.03}, nil, WinRate{})
	if e.sortinoRatio() != 0 {
		t.Fatalf("无下行时 sortino=%v, want 0", e.sortinoRatio())
	}
}

func TestEvaluation_EmptyReturns(t *testing.T) {
	e := newEvaluation(nil, nil, WinRate{})
	if e.sharpeRatio() != 0 || e.sortinoRatio() != 0 || e.maxDrawdown() != 0 || e.totalReturn() != 0 {
		t.Fatalf("空序列各指标应为 0")
	}
}

func TestEvaluation_MetricsRounding(t *testing.T) {
	logRets := []float64{0, 0.012345, -0.004567}
	cum := make([]float64, len(logRets))
	sum := 0.0
	for i, r := range logRets {
		sum += r
		cum[i] = math.Exp(sum) - 1
	}
	e := newEvaluation(logRets, cum, WinRate{Rate: 1, Opened: 1, Closed: 1, ClosedProfit: 1})

	m := e.metrics()

	// equity_curve 4 位、drawdowns 3 位、total_return 2 位
	for i, v := range m.EquityCurve {
		if v != roundFloat(cum[i], 4) {
			t.Fatalf("EquityCurve[%d]=%v 未按 4 位舍入", i, v)
		}
	}
	if m.TotalReturn != roundFloat(cum[len(cum)-1], 2) {
		t.Fatalf("TotalReturn=%v 未按 2 位舍入", m.TotalReturn)
	}
	if m.MeanReturn != roundFloat(e.meanReturn(), 3) {
		t.Fatalf("MeanReturn=%v 未按 3 位舍入", m.MeanReturn)
	}
	if m.WinRateStats.Rate != 1 {
		t.Fatalf("WinRateStats 未透传")
	}
}
