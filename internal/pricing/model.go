// Package pricing 定义价格序列数据模型与配对取数控制。
// 从数据源取回两条收盘价序列，对齐时间标签后交给统计与回测层。
package pricing

import (
	"context"
	"errors"
	"fmt"
)

// ErrSeriesMismatch 两条序列时间标签无法对齐
var ErrSeriesMismatch = errors.New("价格序列时间标签不一致")

// IntervalUnit K 线周期单位
type IntervalUnit string

const (
	// UnitMin 分钟线
	UnitMin IntervalUnit = "min"
	// UnitHour 小时线
	UnitHour IntervalUnit = "hour"
	// UnitDay 日线
	UnitDay IntervalUnit = "day"
)

// Interval K 线周期
// Step 为单根 K 线跨度（以 Unit 计），Period 为总回看跨度（以 Unit 计）。
// 例如 {hour, 1, 700} 表示 1 小时线、回看 700 小时。
type Interval struct {
	// Unit 周期单位
	Unit IntervalUnit `yaml:"unit" json:"unit"`
	// Step 单根 K 线跨度
	Step int `yaml:"step" json:"step"`
	// Period 总回看跨度
	Period int `yaml:"period" json:"period"`
}

// DefaultInterval 默认周期：1 小时线回看 700 小时
func DefaultInterval() Interval {
	return Interval{Unit: UnitHour, Step: 1, Period: 700}
}

// Valid 判断周期是否合法
func (iv Interval) Valid() bool {
	if iv.Step <= 0 || iv.Period <= 0 {
		return false
	}
	switch iv.Unit {
	case UnitMin, UnitHour, UnitDay:
		return true
	default:
		return false
	}
}

// BarSeconds 单根 K 线的秒数
func (iv Interval) BarSeconds() int64 {
	switch iv.Unit {
	case UnitMin:
		return int64(iv.Step) * 60
	case UnitHour:
		return int64(iv.Step) * 3600
	case UnitDay:
		return int64(iv.Step) * 86400
	default:
		return 0
	}
}

// Bars 回看跨度折算的 K 线根数
func (iv Interval) Bars() int {
	if iv.Step <= 0 {
		return 0
	}
	return iv.Period / iv.Step
}

// String 周期可读名，如 [Hour][1,700]
func (iv Interval) String() string {
	switch iv.Unit {
	case UnitMin:
		return fmt.Sprintf("[Min][%d,%d]", iv.Step, iv.Period)
	case UnitHour:
		return fmt.Sprintf("[Hour][%d,%d]", iv.Step, iv.Period)
	case UnitDay:
		return fmt.Sprintf("[Day][%d,%d]", iv.Step, iv.Period)
	default:
		return fmt.Sprintf("[?][%d,%d]", iv.Step, iv.Period)
	}
}

// HistoricalPrices 单资产历史收盘价
// labels 为每根 K 线的开盘时间（Unix 秒），与 prices 一一对应。
type HistoricalPrices struct {
	// Prices 收盘价序列
	Prices []float64 `json:"prices"`
	// Labels Unix 秒时间标签
	Labels []uint64 `json:"labels"`
}

// PairPrices 对齐后的配对价格
type PairPrices struct {
	// Series0 资产 0 收盘价
	Series0 []float64 `json:"series_0"`
	// Series1 资产 1 收盘价
	Series1 []float64 `json:"series_1"`
	// Labels 共同时间标签（Unix 秒）
	Labels []uint64 `json:"labels"`
	// Truncated 对齐时各序列被截掉的头部根数，0 表示无截断
	Truncated int `json:"truncated,omitempty"`
}

// DataCriteria 取数参数
type DataCriteria struct {
	// Exchange 数据源名（binance / bybit）
	Exchange string `yaml:"exchange" json:"exchange"`
	// Asset0 资产 0 符号
	Asset0 string `yaml:"asset_0" json:"asset_0"`
	// Asset1 资产 1 符号
	Asset1 string `yaml:"asset_1" json:"asset_1"`
	// Interval K 线周期
	Interval Interval `yaml:"interval" json:"interval"`
}

// Source 历史 K 线数据源
// 由各交易所 REST 客户端实现。
type Source interface {
	// Name 数据源名
	Name() string
	// FetchCandles 拉取一个符号在给定周期下的历史收盘价
	FetchCandles(ctx context.Context, symbol string, iv Interval) (*HistoricalPrices, error)
}
