// Package backtest 基于指标阈值的配对交易回测。
// 由指标序列驱动开平仓状态机生成信号，按加权对数收益率
// 计算策略净值，再汇总为评估指标。
package backtest

import (
	"errors"
	"fmt"
)

// ErrInvalidCriteria 回测参数非法
var ErrInvalidCriteria = errors.New("回测参数非法")

// TriggerIndicator 触发指标类型
type TriggerIndicator string

const (
	// TriggerZScore 以滚动 z-score 为触发指标
	TriggerZScore TriggerIndicator = "zscore"
	// TriggerSpread 以价差本身为触发指标
	TriggerSpread TriggerIndicator = "spread"
)

// Valid 判断触发指标类型是否合法
func (t TriggerIndicator) Valid() bool {
	return t == TriggerZScore || t == TriggerSpread
}

// Relation 开仓前的关系闸门
type Relation string

const (
	// RelationCoint 开仓前要求最近窗口协整
	RelationCoint Relation = "coint"
	// RelationCorr 开仓前要求最近窗口相关系数绝对值达标
	RelationCorr Relation = "corr"
	// RelationIgnore 不做关系检查
	RelationIgnore Relation = "ignore"
)

// Valid 判断关系闸门类型是否合法
func (r Relation) Valid() bool {
	return r == RelationCoint || r == RelationCorr || r == RelationIgnore
}

// LongSeries 多头腿
type LongSeries string

const (
	// LongSeries0 做多 series0、做空 series1
	LongSeries0 LongSeries = "series_0"
	// LongSeries1 做多 series1、做空 series0
	LongSeries1 LongSeries = "series_1"
)

// Valid 判断多头腿取值是否合法
func (l LongSeries) Valid() bool {
	return l == LongSeries0 || l == LongSeries1
}

// Criteria 回测参数
type Criteria struct {
	// IndicatorValues 触发指标序列，长度须与价格序列一致
	IndicatorValues []float64 `json:"indicator_values"`
	// TriggerIndicator 指标类型（仅作标注，不影响状态机）
	TriggerIndicator TriggerIndicator `yaml:"trigger_indicator" json:"trigger_indicator"`
	// Relation 开仓前关系闸门
	Relation Relation `yaml:"relation" json:"relation"`
	// CostPerLeg 单腿交易成本（比例），开/平仓各收双腿
	CostPerLeg float64 `yaml:"cost_per_leg" json:"cost_per_leg"`
	// RetsWeightingS0 series0 收益权重占比，0.5 为等权
	RetsWeightingS0 float64 `yaml:"rets_weighting_s0_perc" json:"rets_weighting_s0_perc"`
	// LongSeries 多头腿
	LongSeries LongSeries `yaml:"long_series" json:"long_series"`
	// StopLoss 止损阈值（跟踪收益下限，负值），0 表示关闭
	StopLoss float64 `yaml:"stop_loss" json:"stop_loss"`
	// LongThresh 指标低于该值开多
	LongThresh float64 `yaml:"long_thresh" json:"long_thresh"`
	// LongCloseThresh 指标高于该值平多
	LongCloseThresh float64 `yaml:"long_close_thresh" json:"long_close_thresh"`
	// ShortThresh 指标高于该值开空
	ShortThresh float64 `yaml:"short_thresh" json:"short_thresh"`
	// ShortCloseThresh 指标低于该值平空
	ShortCloseThresh float64 `yaml:"short_close_thresh" json:"short_close_thresh"`
}

// DefaultCriteria 默认回测参数
// z-score 触发、无关系闸门、单腿成本 0.0005、等权、
// 做多 series0、无止损、±1.5 开仓 0.0 平仓。
func DefaultCriteria(indicatorValues []float64) Criteria {
	return Criteria{
		IndicatorValues:  indicatorValues,
		TriggerIndicator: TriggerZScore,
		Relation:         RelationIgnore,
		CostPerLeg:       0.0005,
		RetsWeightingS0:  0.5,
		LongSeries:       LongSeries0,
		StopLoss:         0,
		LongThresh:       -1.5,
		LongCloseThresh:  0,
		ShortThresh:      1.5,
		ShortCloseThresh: 0,
	}
}

// Validate 校验回测参数
// 阈值须满足 longThresh ≤ shortThresh、longCloseThresh ≥ longThresh、
// shortCloseThresh ≤ shortThresh；指标序列长度须等于 seriesLen。
func (c *Criteria) Validate(seriesLen int) error {
	if len(c.IndicatorValues) != seriesLen {
		return fmt.Errorf("%w: 指标长度 %d 与序列长度 %d 不一致",
			ErrInvalidCriteria, len(c.IndicatorValues), seriesLen)
	}
	if !c.TriggerIndicator.Valid() {
		return fmt.Errorf("%w: 非法触发指标 %q", ErrInvalidCriteria, c.TriggerIndicator)
	}
	if !c.Relation.Valid() {
		return fmt.Errorf("%w: 非法关系闸门 %q", ErrInvalidCriteria, c.Relation)
	}
	if !c.LongSeries.Valid() {
		return fmt.Errorf("%w: 非法多头腿 %q", ErrInvalidCriteria, c.LongSeries)
	}
	if c.LongThresh > c.ShortThresh {
		return fmt.Errorf("%w: longThresh=%v > shortThresh=%v",
			ErrInvalidCriteria, c.LongThresh, c.ShortThresh)
	}
	if c.LongCloseThresh < c.LongThresh {
		return fmt.Errorf("%w: longCloseThresh=%v < longThresh=%v",
			ErrInvalidCriteria, c.LongCloseThresh, c.LongThresh)
	}
	if c.ShortCloseThresh > c.ShortThresh {
		return fmt.Errorf("%w: shortCloseThresh=%v > shortThresh=%v",
			ErrInvalidCriteria, c.ShortCloseThresh, c.ShortThresh)
	}
	return nil
}
