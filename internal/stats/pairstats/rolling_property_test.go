// Package pairstats 滚动统计属性测试
package pairstats

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRollingZScore_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("输出与输入等长且前 window 个元素恰为 0", prop.ForAll(
		func(values []float64, window int) bool {
			if window < 2 {
				window = 2
			}
			if window > len(values) {
				window = len(values)
			}
			// 注入趋势避免窗口内恰好零方差
			series := make([]float64, len(values))
			for i, v := range values {
				series[i] = v + float64(i)*0.01
			}

			z, err := RollingZScore(series, window)
			if err != nil {
				return false
			}
			if len(z) != len(series) {
				return false
			}
			for i := 0; i < window; i++ {
				if z[i] != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(60, gen.Float64Range(-100, 100)),
		gen.IntRange(2, 40),
	))

	properties.Property("窗口大于序列长度必报错", prop.ForAll(
		func(values []float64) bool {
			_, err := RollingZScore(values, len(values)+1)
			return err != nil
		},
		gen.SliceOfN(20, gen.Float64Range(-10, 10)),
	))

	properties.TestingRun(t)
}
