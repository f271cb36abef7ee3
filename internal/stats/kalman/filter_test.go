// Package kalman 滤波器测试
package kalman

import (
	"errors"
	"math"
	"testing"
)

func TestHedgeRatios_Length(t *testing.T) {
	s0 := []float64{100, 101, 102, 103}
	s1 := []float64{50, 50.5, 51, 51.5}

	ratios, err := HedgeRatios(s0, s1)
	if err != nil {
		t.Fatalf("HedgeRatios 失败: %v", err)
	}
	if len(ratios) != len(s0) {
		t.Fatalf("len=%d, want %d", len(ratios), len(s0))
	}
}

func TestHedgeRatios_FirstStep(t *testing.T) {
	// 第一步手算：P=1+0.0001, K=P/(P+1), x = K·y
	s0 := []float64{100}
	s1 := []float64{50}

	ratios, err := HedgeRatios(s0, s1)
	if err != nil {
		t.Fatalf("HedgeRatios 失败: %v", err)
	}

	p := 1.0 + 0.0001
	k := p / (p + 1.0)
	want := k * 2.0
	if math.Abs(ratios[0]-want) > 1e-15 {
		t.Fatalf("ratios[0]=%v, want %v", ratios[0], want)
	}
}

func TestHedgeRatios_ConvergesToConstantRatio(t *testing.T) {
	// 比值恒定时状态应收敛到该比值附近
	n := 500
	s0 := make([]float64, n)
	s1 := make([]float64, n)
	for i := 0; i < n; i++ {
		s0[i] = 200
		s1[i] = 100
	}

	ratios, err := HedgeRatios(s0, s1)
	if err != nil {
		t.Fatalf("HedgeRatios 失败: %v", err)
	}
	last := ratios[len(ratios)-1]
	if math.Abs(last-2.0) > 0.05 {
		t.Fatalf("末位对冲比率=%v, want ≈2", last)
	}

	// 序列单调趋近（前期上升）
	if !(ratios[0] < ratios[10] && ratios[10] < ratios[100]) {
		t.Fatalf("对冲比率未向观测值收敛: %v %v %v", ratios[0], ratios[10], ratios[100])
	}
}

func TestHedgeRatios_ShapeMismatch(t *testing.T) {
	_, err := HedgeRatios([]float64{1, 2}, []float64{1})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err=%v, want ErrShapeMismatch", err)
	}
}

func TestHedgeRatios_Deterministic(t *testing.T) {
	s0 := []float64{101.3, 99.8, 102.6, 100.1, 98.4}
	s1 := []float64{51.2, 50.1, 50.9, 49.8, 50.4}

	a, err := HedgeRatios(s0, s1)
	if err != nil {
		t.Fatalf("HedgeRatios 失败: %v", err)
	}
	b, err := HedgeRatios(s0, s1)
	if err != nil {
		t.Fatalf("HedgeRatios 失败: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("第 %d 步结果不可重现: %v != %v", i, a[i], b[i])
		}
	}
}
