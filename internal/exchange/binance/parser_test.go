// Package binance Binance 解析器测试
package binance

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"pairs-trading-analyzer/internal/pricing"
)

// 真实 Binance kline 推送样例（字段精简）
const sampleKlineMsg = `{
	"e": "kline",
	"E": 1699999999123,
	"s": "BTCUSDT",
	"k": {
		"t": 1699999200000,
		"T": 1700002799999,
		"i": "1h",
		"c": "35123.45",
		"x": true
	}
}`

func TestParse_KlineMessage(t *testing.T) {
	p := NewParser([]string{"btcusdt", "ETHUSDT"})

	candle, err := p.Parse([]byte(sampleKlineMsg))
	if err != nil {
		t.Fatalf("解析 kline 消息失败: %v", err)
	}
	if candle == nil {
		t.Fatal("期望返回 Candle，实际为 nil")
	}
	if candle.Symbol != "BTCUSDT" {
		t.Errorf("Symbol = %s, 期望 BTCUSDT", candle.Symbol)
	}
	if candle.OpenTimeSec != 1699999200 {
		t.Errorf("OpenTimeSec = %d, 期望 1699999200", candle.OpenTimeSec)
	}
	if math.Abs(candle.Close-35123.45) > 1e-9 {
		t.Errorf("Close = %v, 期望 35123.45", candle.Close)
	}
	if !candle.Final {
		t.Error("期望 Final = true")
	}
}

func TestParse_UnsubscribedSymbol(t *testing.T) {
	p := NewParser([]string{"ETHUSDT"})

	candle, err := p.Parse([]byte(sampleKlineMsg))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if candle != nil {
		t.Errorf("未订阅符号应返回 nil，实际 %+v", candle)
	}
}

func TestParse_NonKlineMessage(t *testing.T) {
	p := NewParser([]string{"BTCUSDT"})

	// 订阅响应
	candle, err := p.Parse([]byte(`{"result":null,"id":1}`))
	if err != nil {
		t.Fatalf("解析订阅响应失败: %v", err)
	}
	if candle != nil {
		t.Errorf("订阅响应应返回 nil，实际 %+v", candle)
	}

	// 其它事件类型
	candle, err = p.Parse([]byte(`{"e":"aggTrade","s":"BTCUSDT"}`))
	if err != nil {
		t.Fatalf("解析 aggTrade 失败: %v", err)
	}
	if candle != nil {
		t.Error("非 kline 事件应返回 nil")
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	p := NewParser([]string{"BTCUSDT"})

	if _, err := p.Parse([]byte(`{invalid`)); err == nil {
		t.Error("非法 JSON 应返回错误")
	}
}

func TestParse_InvalidClosePrice(t *testing.T) {
	p := NewParser([]string{"BTCUSDT"})

	msg := `{"e":"kline","s":"BTCUSDT","k":{"t":1699999200000,"i":"1h","c":"abc","x":false}}`
	if _, err := p.Parse([]byte(msg)); err == nil {
		t.Error("非法收盘价应返回错误")
	}
}

// TestParse_RoundTrip 测试解析器往返一致性
// 属性: 任意合法 kline 消息解析后应保留收盘价与开盘时间
func TestParse_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	p := NewParser([]string{"BTCUSDT"})

	properties.Property("解析保留收盘价与开盘时间", prop.ForAll(
		func(closePx float64, openTimeMs int64, final bool) bool {
			msg := KlineUpdate{
				EventType: "kline",
				Symbol:    "BTCUSDT",
				Kline: KlinePayload{
					OpenTimeMs: openTimeMs,
					Interval:   "1h",
					Close:      fmt.Sprintf("%.8f", closePx),
					IsFinal:    final,
				},
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return false
			}

			candle, err := p.Parse(data)
			if err != nil || candle == nil {
				return false
			}
			return math.Abs(candle.Close-closePx) < 1e-6 &&
				candle.OpenTimeSec == uint64(openTimeMs/1000) &&
				candle.Final == final
		},
		gen.Float64Range(0.0001, 1_000_000),
		gen.Int64Range(1_600_000_000_000, 1_800_000_000_000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestIntervalString(t *testing.T) {
	cases := []struct {
		iv      pricing.Interval
		want    string
		wantErr bool
	}{
		{pricing.Interval{Unit: pricing.UnitMin, Step: 5, Period: 100}, "5m", false},
		{pricing.Interval{Unit: pricing.UnitMin, Step: 15, Period: 100}, "15m", false},
		{pricing.Interval{Unit: pricing.UnitHour, Step: 1, Period: 700}, "1h", false},
		{pricing.Interval{Unit: pricing.UnitHour, Step: 4, Period: 700}, "4h", false},
		{pricing.Interval{Unit: pricing.UnitDay, Step: 1, Period: 365}, "1d", false},
		{pricing.Interval{Unit: pricing.UnitMin, Step: 7, Period: 100}, "", true},
		{pricing.Interval{Unit: pricing.UnitDay, Step: 3, Period: 100}, "", true},
	}

	for _, tc := range cases {
		got, err := IntervalString(tc.iv)
		if tc.wantErr {
			if err == nil {
				t.Errorf("IntervalString(%v) 期望错误", tc.iv)
			}
			continue
		}
		if err != nil {
			t.Errorf("IntervalString(%v) 意外错误: %v", tc.iv, err)
			continue
		}
		if got != tc.want {
			t.Errorf("IntervalString(%v) = %s, 期望 %s", tc.iv, got, tc.want)
		}
	}
}

func TestDecodeKlines(t *testing.T) {
	// Binance K 线响应：数组的数组，[0] 开盘时间毫秒，[4] 收盘价字符串
	body := `[
		[1699995600000, "35000.0", "35200.0", "34900.0", "35100.5", "123.4"],
		[1699999200000, "35100.5", "35300.0", "35050.0", "35123.45", "98.7"]
	]`

	labels, prices, err := decodeKlines([]byte(body))
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if len(labels) != 2 || len(prices) != 2 {
		t.Fatalf("长度 = (%d, %d), 期望 (2, 2)", len(labels), len(prices))
	}
	if labels[0] != 1699995600 || labels[1] != 1699999200 {
		t.Errorf("labels = %v, 期望秒级时间戳", labels)
	}
	if math.Abs(prices[1]-35123.45) > 1e-9 {
		t.Errorf("prices[1] = %v, 期望 35123.45", prices[1])
	}
}

func TestDecodeKlines_SkipsMalformedRows(t *testing.T) {
	body := `[
		[1699995600000, "x", "x", "x", "35100.5"],
		["oops", "x", "x", "x", "35200.0"],
		[1699999200000, "x"]
	]`

	labels, prices, err := decodeKlines([]byte(body))
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if len(labels) != 1 || len(prices) != 1 {
		t.Fatalf("应跳过畸形行，长度 = (%d, %d)", len(labels), len(prices))
	}
	if labels[0] != 1699995600 {
		t.Errorf("labels[0] = %d", labels[0])
	}
}

func TestDecodeKlines_InvalidJSON(t *testing.T) {
	if _, _, err := decodeKlines([]byte(`{"code":-1121}`)); err == nil {
		t.Error("非数组响应应返回错误")
	}
}
