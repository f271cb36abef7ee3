// Package bybit ByBit K 线解码测试
package bybit

import (
	"math"
	"testing"

	"pairs-trading-analyzer/internal/pricing"
)

func TestIntervalString(t *testing.T) {
	cases := []struct {
		iv      pricing.Interval
		want    string
		wantErr bool
	}{
		{pricing.Interval{Unit: pricing.UnitMin, Step: 5, Period: 100}, "5", false},
		{pricing.Interval{Unit: pricing.UnitMin, Step: 30, Period: 100}, "30", false},
		{pricing.Interval{Unit: pricing.UnitHour, Step: 1, Period: 700}, "60", false},
		{pricing.Interval{Unit: pricing.UnitHour, Step: 4, Period: 700}, "240", false},
		{pricing.Interval{Unit: pricing.UnitHour, Step: 12, Period: 700}, "720", false},
		{pricing.Interval{Unit: pricing.UnitDay, Step: 1, Period: 365}, "D", false},
		{pricing.Interval{Unit: pricing.UnitHour, Step: 8, Period: 700}, "", true},
		{pricing.Interval{Unit: pricing.UnitDay, Step: 7, Period: 100}, "", true},
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

// ByBit 返回倒序列表，解码后应为升序
func TestDecodeKlines_ReversesOrder(t *testing.T) {
	body := `{
		"retCode": 0,
		"retMsg": "OK",
		"result": {
			"symbol": "BTCUSDT",
			"list": [
				["1699999200000", "35100.5", "35300.0", "35050.0", "35123.45", "98.7", "100"],
				["1699995600000", "35000.0", "35200.0", "34900.0", "35100.5", "123.4", "200"]
			]
		}
	}`

	labels, prices, err := decodeKlines([]byte(body))
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if len(labels) != 2 || len(prices) != 2 {
		t.Fatalf("长度 = (%d, %d), 期望 (2, 2)", len(labels), len(prices))
	}
	if labels[0] != 1699995600 || labels[1] != 1699999200 {
		t.Errorf("labels = %v, 应为升序秒级时间戳", labels)
	}
	if math.Abs(prices[0]-35100.5) > 1e-9 || math.Abs(prices[1]-35123.45) > 1e-9 {
		t.Errorf("prices = %v, 期望 [35100.5 35123.45]", prices)
	}
}

func TestDecodeKlines_APIError(t *testing.T) {
	body := `{"retCode": 10001, "retMsg": "params error", "result": {}}`
	if _, _, err := decodeKlines([]byte(body)); err == nil {
		t.Error("retCode 非 0 应返回错误")
	}
}

func TestDecodeKlines_SkipsMalformedRows(t *testing.T) {
	body := `{
		"retCode": 0,
		"retMsg": "OK",
		"result": {
			"list": [
				["oops", "0", "0", "0", "35200.0"],
				["1699995600000", "0", "0", "0", "bad"],
				["1699992000000", "0", "0", "0", "35000.0"]
			]
		}
	}`

	labels, prices, err := decodeKlines([]byte(body))
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if len(labels) != 1 || len(prices) != 1 {
		t.Fatalf("应跳过畸形行，长度 = (%d, %d)", len(labels), len(prices))
	}
	if labels[0] != 1699992000 {
		t.Errorf("labels[0] = %d", labels[0])
	}
}

func TestDecodeKlines_InvalidJSON(t *testing.T) {
	if _, _, err := decodeKlines([]byte(`not json`)); err == nil {
		t.Error("非法 JSON 应返回错误")
	}
}

func TestRestClient_Name(t *testing.T) {
	c := NewRestClient("", 5000, nil)
	if c.Name() != "bybit" {
		t.Errorf("Name() = %s, 期望 bybit", c.Name())
	}
}
