package pairstats

import (
	"errors"
	"fmt"

	"pairs-trading-analyzer/internal/stats/coint"
)

// 默认参数
const (
	// DefaultZScoreWindow 默认 z-score 滚动窗口
	DefaultZScoreWindow = 35
	// DefaultRollWindow 默认滚动协整/相关窗口
	DefaultRollWindow = 90
)

// ErrEmptySeries 序列为空
var ErrEmptySeries = errors.New("价格序列为空")

// Criteria 统计计算参数
type Criteria struct {
	// SpreadType 价差计算方式，默认动态
	SpreadType SpreadType `yaml:"spread_type" json:"spread_type"`
	// ZScoreWindow z-score 滚动窗口
	ZScoreWindow int `yaml:"zscore_window" json:"zscore_window"`
	// RollWindow 滚动协整/相关窗口
	RollWindow int `yaml:"roll_window" json:"roll_window"`
}

// DefaultCriteria 默认统计参数：动态价差、z-score 窗口 35、滚动窗口 90
func DefaultCriteria() Criteria {
	return Criteria{
		SpreadType:   SpreadDynamic,
		ZScoreWindow: DefaultZScoreWindow,
		RollWindow:   DefaultRollWindow,
	}
}

// Statistics 一对序列的全部配对统计量
type Statistics struct {
	// Coint 全样本协整检验结果
	Coint *coint.Result `json:"coint"`
	// Corr 全样本 Pearson 相关系数
	Corr float64 `json:"corr"`
	// HalfLife 价差均值回复半衰期（bar）
	HalfLife float64 `json:"half_life"`
	// HedgeRatio 标量对冲比率（静态为 OLS 斜率，动态为末位 Kalman 状态）
	HedgeRatio float64 `json:"hedge_ratio"`
	// Spread 价差序列
	Spread []float64 `json:"spread"`
	// ZScore 价差滚动 z-score
	ZScore []float64 `json:"zscore"`
	// CointRoll 滚动协整 (5% 临界值 − t)
	CointRoll []float64 `json:"coint_roll"`
	// CorrRoll 滚动相关
	CorrRoll []float64 `json:"corr_roll"`
	// Diagnostics 配对关系诊断
	Diagnostics *Diagnostics `json:"diagnostics"`
}

// Calculate 对一对价格序列计算全部统计量
// 价差类型非法时按默认动态处理前先报错；
// 各子计算的错误带上下文逐层上抛，不做静默降级。
func Calculate(series0, series1 []float64, c Criteria) (*Statistics, error) {
	if len(series0) == 0 || len(series1) == 0 {
		return nil, fmt.Errorf("%w: len0=%d len1=%d", ErrEmptySeries, len(series0), len(series1))
	}
	if !c.SpreadType.Valid() {
		return nil, fmt.Errorf("非法价差类型: %q", c.SpreadType)
	}

	cointRes, err := coint.Test(series0, series1)
	if err != nil {
		return nil, fmt.Errorf("协整检验失败: %w", err)
	}

	corr, err := PearsonCorrelation(series0, series1)
	if err != nil {
		return nil, fmt.Errorf("相关系数计算失败: %w", err)
	}

	var spread []float64
	var hedgeRatio float64
	switch c.SpreadType {
	case SpreadStatic:
		spread, hedgeRatio, err = StaticSpread(series0, series1)
	case SpreadDynamic:
		spread, hedgeRatio, err = DynamicSpread(series0, series1)
	}
	if err != nil {
		return nil, fmt.Errorf("价差计算失败 (%s): %w", c.SpreadType, err)
	}

	halfLife, err := HalfLifeMeanReversion(spread)
	if err != nil {
		return nil, fmt.Errorf("半衰期计算失败: %w", err)
	}

	zscore, err := RollingZScore(spread, c.ZScoreWindow)
	if err != nil {
		return nil, fmt.Errorf("滚动 z-score 计算失败: %w", err)
	}

	cointRoll, err := RollingCointegration(series0, series1, c.RollWindow)
	if err != nil {
		return nil, fmt.Errorf("滚动协整计算失败: %w", err)
	}

	corrRoll, err := RollingCorrelation(series0, series1, c.RollWindow)
	if err != nil {
		return nil, fmt.Errorf("滚动相关计算失败: %w", err)
	}

	diag, err := RelationDiagnostics(series0, series1)
	if err != nil {
		return nil, fmt.Errorf("关系诊断计算失败: %w", err)
	}

	return &Statistics{
		Coint:       cointRes,
		Corr:        corr,
		HalfLife:    halfLife,
		HedgeRatio:  hedgeRatio,
		Spread:      spread,
		ZScore:      zscore,
		CointRoll:   cointRoll,
		CorrRoll:    corrRoll,
		Diagnostics: diag,
	}, nil
}
