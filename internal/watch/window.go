// Package watch 实现实时行情下的配对跟踪。
// 消费 WebSocket K 线流，维护两条滚动收盘价序列，
// 每当两腿同时收出新 K 线便重算统计与建议信号。
package watch

import (
	"pairs-trading-analyzer/internal/pricing"
)

// seriesBuffer 单资产滚动收盘价缓冲
type seriesBuffer struct {
	labels []uint64
	prices []float64
	// lastFinal 最新一根已收盘 K 线的时间标签，0 表示尚无
	lastFinal uint64
}

// PairWindow 双资产滚动价格窗口（单写者）
// 注意：本结构体默认由 Watcher 单 goroutine 写入；
// 若要跨 goroutine 读，请通过快照拷贝传递。
type PairWindow struct {
	// capacity 每条序列保留的最大 K 线根数
	capacity int
	// buffers 按符号缓存序列
	buffers map[string]*seriesBuffer
	// symbol0 资产 0 符号
	symbol0 string
	// symbol1 资产 1 符号
	symbol1 string
}

// NewPairWindow 创建配对价格窗口
// 参数 capacity: 每条序列保留的最大 K 线根数
func NewPairWindow(symbol0, symbol1 string, capacity int) *PairWindow {
	return &PairWindow{
		capacity: capacity,
		symbol0:  symbol0,
		symbol1:  symbol1,
		buffers: map[string]*seriesBuffer{
			symbol0: {},
			symbol1: {},
		},
	}
}

// Seed 用历史配对价格预填窗口
// 历史数据全部视为已收盘。
func (w *PairWindow) Seed(pair *pricing.PairPrices) {
	w.seedOne(w.symbol0, pair.Labels, pair.Series0)
	w.seedOne(w.symbol1, pair.Labels, pair.Series1)
}

func (w *PairWindow) seedOne(symbol string, labels []uint64, prices []float64) {
	buf := w.buffers[symbol]
	if buf == nil {
		return
	}
	n := len(labels)
	if len(prices) < n {
		n = len(prices)
	}
	start := 0
	if n > w.capacity {
		start = n - w.capacity
	}
	buf.labels = append(buf.labels[:0], labels[start:n]...)
	buf.prices = append(buf.prices[:0], prices[start:n]...)
	if len(buf.labels) > 0 {
		buf.lastFinal = buf.labels[len(buf.labels)-1]
	}
}

// Upsert 更新一根 K 线
// 同标签覆盖（K 线进行中刷新收盘价），新标签追加并裁剪到容量。
// final 标记该根是否已收盘。
func (w *PairWindow) Upsert(symbol string, openTimeSec uint64, closePx float64, final bool) {
	buf, ok := w.buffers[symbol]
	if !ok {
		return
	}

	n := len(buf.labels)
	if n > 0 && buf.labels[n-1] == openTimeSec {
		buf.prices[n-1] = closePx
	} else if n == 0 || openTimeSec > buf.labels[n-1] {
		buf.labels = append(buf.labels, openTimeSec)
		buf.prices = append(buf.prices, closePx)
		if len(buf.labels) > w.capacity {
			buf.labels = buf.labels[1:]
			buf.prices = buf.prices[1:]
		}
	} else {
		// 乱序旧 K 线，丢弃
		return
	}

	if final && openTimeSec > buf.lastFinal {
		buf.lastFinal = openTimeSec
	}
}

// Ready 判断两腿是否都收出了同一时间标签的 K 线且样本足够
// 参数 minBars: 分析所需的最少 K 线根数
// 返回: 是否就绪，以及就绪时的共同标签
func (w *PairWindow) Ready(minBars int) (bool, uint64) {
	b0 := w.buffers[w.symbol0]
	b1 := w.buffers[w.symbol1]
	if b0.lastFinal == 0 || b0.lastFinal != b1.lastFinal {
		return false, 0
	}
	if len(b0.labels) < minBars || len(b1.labels) < minBars {
		return false, 0
	}
	return true, b0.lastFinal
}

// Snapshot 导出对齐后的配对价格快照
// 仅取截至两腿共同已收盘标签的部分，未收盘的尾部丢弃。
func (w *PairWindow) Snapshot() (*pricing.PairPrices, error) {
	b0 := w.buffers[w.symbol0]
	b1 := w.buffers[w.symbol1]

	h0 := &pricing.HistoricalPrices{
		Prices: trimAfter(b0.prices, b0.labels, b0.lastFinal),
		Labels: trimLabels(b0.labels, b0.lastFinal),
	}
	h1 := &pricing.HistoricalPrices{
		Prices: trimAfter(b1.prices, b1.labels, b1.lastFinal),
		Labels: trimLabels(b1.labels, b1.lastFinal),
	}
	return pricing.MatchSeries(h0, h1)
}

// trimLabels 截取到 lastFinal（含）为止的标签
func trimLabels(labels []uint64, lastFinal uint64) []uint64 {
	for i := len(labels) - 1; i >= 0; i-- {
		if labels[i] == lastFinal {
			out := make([]uint64, i+1)
			copy(out, labels[:i+1])
			return out
		}
	}
	return nil
}

// trimAfter 截取与 trimLabels 等长的价格
func trimAfter(prices []float64, labels []uint64, lastFinal uint64) []float64 {
	for i := len(labels) - 1; i >= 0; i-- {
		if labels[i] == lastFinal {
			out := make([]float64, i+1)
			copy(out, prices[:i+1])
			return out
		}
	}
	return nil
}
