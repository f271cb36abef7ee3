package pricing

import (
	"time"

	"pairs-trading-analyzer/internal/util/timeutil"
)

// CallWindow 单次 REST 调用覆盖的时间段（Unix 秒，左闭右闭）
type CallWindow struct {
	// From 起始时间
	From int64
	// To 结束时间
	To int64
}

// PlanCalls 将回看区间切分为按时间从早到晚排列的调用窗口
// maxLimit 为数据源单次调用允许的最大 K 线根数；
// 终点向下对齐到 K 线边界后向过去回溯，
// 整窗按 maxLimit 根切分，余数单独一窗。
func PlanCalls(now time.Time, iv Interval, maxLimit int) []CallWindow {
	barSec := iv.BarSeconds()
	totalBars := iv.Bars()
	if barSec <= 0 || totalBars <= 0 || maxLimit <= 0 {
		return nil
	}

	iterations := totalBars / maxLimit
	finalN := totalBars % maxLimit

	windows := make([]CallWindow, 0, iterations+1)
	endTime := timeutil.AlignDown(now.Unix(), barSec)

	for i := 0; i < iterations; i++ {
		startTime := endTime - int64(maxLimit)*barSec
		windows = append(windows, CallWindow{From: startTime, To: endTime})
		endTime = startTime
	}
	if finalN > 0 {
		startTime := endTime - int64(finalN)*barSec
		windows = append(windows, CallWindow{From: startTime, To: endTime})
	}

	// 反转为时间升序
	for i, j := 0, len(windows)-1; i < j; i, j = i+1, j-1 {
		windows[i], windows[j] = windows[j], windows[i]
	}
	return windows
}

// DedupCandles 去除相邻重复标签的 K 线
// 各数据源窗口边界覆盖略有冗余，拼接后可能出现重复标签，保留首个。
func DedupCandles(labels []uint64, prices []float64) ([]uint64, []float64) {
	if len(labels) == 0 {
		return labels, prices
	}
	outLabels := labels[:1]
	outPrices := prices[:1]
	for i := 1; i < len(labels); i++ {
		if labels[i] == labels[i-1] {
			continue
		}
		outLabels = append(outLabels, labels[i])
		outPrices = append(outPrices, prices[i])
	}
	return outLabels, outPrices
}
