// Package config 负责加载和验证 YAML 配置文件。
// 提供应用程序所需的所有配置项，包括数据源、统计参数、回测参数与输出设置。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pairs-trading-analyzer/internal/backtest"
	"pairs-trading-analyzer/internal/pricing"
	"pairs-trading-analyzer/internal/stats/pairstats"
)

// 运行模式
const (
	// ModeBacktest 一次性历史回测
	ModeBacktest = "backtest"
	// ModeLive 实时行情跟踪
	ModeLive = "live"
)

// Config 应用配置根结构
// 包含所有子模块的配置项
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// Data 取数配置（交易所、资产对、周期）
	Data pricing.DataCriteria `yaml:"data"`
	// Stats 统计参数
	Stats pairstats.Criteria `yaml:"stats"`
	// Backtest 回测参数
	Backtest backtest.Criteria `yaml:"backtest"`
	// Rest REST 数据源配置
	Rest RestConfig `yaml:"rest"`
	// Stream WebSocket 实时行情配置（live 模式）
	Stream StreamConfig `yaml:"stream"`
	// Output 输出配置
	Output OutputConfig `yaml:"output"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// Mode 运行模式: backtest, live
	Mode string `yaml:"mode"`
}

// RestConfig REST 数据源配置
type RestConfig struct {
	// BaseURL 接口地址，空串使用各交易所默认地址
	BaseURL string `yaml:"base_url"`
	// TimeoutMs HTTP 请求超时时间（毫秒）
	TimeoutMs int `yaml:"timeout_ms"`
}

// StreamConfig WebSocket 实时行情配置
type StreamConfig struct {
	// URL WebSocket 连接地址
	URL string `yaml:"url"`
	// PingIntervalMs 心跳间隔（毫秒）
	PingIntervalMs int `yaml:"ping_interval_ms"`
	// ReadTimeoutMs 读取超时（毫秒）
	ReadTimeoutMs int `yaml:"read_timeout_ms"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// ResultFile 分析结果文件名（JSON 文档）
	ResultFile string `yaml:"result_file"`
	// SignalsEnabled 是否输出信号流文件（JSONL）
	SignalsEnabled bool `yaml:"signals_enabled"`
	// SignalsFile 信号流文件名
	SignalsFile string `yaml:"signals_file"`
	// BufferSize 异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析 YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	cfg.setDefaults()

	// 验证配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	// 应用默认值
	if c.App.Name == "" {
		c.App.Name = "pairs-trading-analyzer"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Mode == "" {
		c.App.Mode = ModeBacktest
	}

	// 取数默认值
	if c.Data.Exchange == "" {
		c.Data.Exchange = "binance"
	}
	if c.Data.Interval == (pricing.Interval{}) {
		c.Data.Interval = pricing.DefaultInterval()
	}

	// 统计默认值
	defStats := pairstats.DefaultCriteria()
	if c.Stats.SpreadType == "" {
		c.Stats.SpreadType = defStats.SpreadType
	}
	if c.Stats.ZScoreWindow == 0 {
		c.Stats.ZScoreWindow = defStats.ZScoreWindow
	}
	if c.Stats.RollWindow == 0 {
		c.Stats.RollWindow = defStats.RollWindow
	}

	// 回测默认值
	// trigger_indicator 为空视为整段省略，填入全部默认参数
	if c.Backtest.TriggerIndicator == "" {
		c.Backtest = backtest.DefaultCriteria(nil)
	}
	if c.Backtest.Relation == "" {
		c.Backtest.Relation = backtest.RelationIgnore
	}
	if c.Backtest.LongSeries == "" {
		c.Backtest.LongSeries = backtest.LongSeries0
	}

	// REST 默认超时
	if c.Rest.TimeoutMs == 0 {
		c.Rest.TimeoutMs = 10000 // 10 秒
	}

	// WebSocket 默认配置
	if c.Stream.ReadTimeoutMs == 0 {
		c.Stream.ReadTimeoutMs = 30000 // 30 秒
	}
	if c.Stream.PingIntervalMs == 0 {
		c.Stream.PingIntervalMs = 15000 // 15 秒
	}

	// 输出默认值
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.ResultFile == "" {
		c.Output.ResultFile = "analysis.json"
	}
	if c.Output.SignalsFile == "" {
		c.Output.SignalsFile = "signals.jsonl"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围
// 返回: 若配置无效则返回描述性错误
func (c *Config) Validate() error {
	var errs []string

	// 验证运行模式
	if c.App.Mode != ModeBacktest && c.App.Mode != ModeLive {
		errs = append(errs, fmt.Sprintf("app.mode: 无效的运行模式 '%s'，有效值: backtest, live", c.App.Mode))
	}

	// 验证日志级别
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	// 验证取数配置
	switch c.Data.Exchange {
	case "binance", "bybit":
	default:
		errs = append(errs, fmt.Sprintf("data.exchange: 不支持的交易所 '%s'，有效值: binance, bybit", c.Data.Exchange))
	}
	if c.Data.Asset0 == "" {
		errs = append(errs, "data.asset_0: 资产 0 不能为空")
	}
	if c.Data.Asset1 == "" {
		errs = append(errs, "data.asset_1: 资产 1 不能为空")
	}
	if c.Data.Asset0 != "" && strings.EqualFold(c.Data.Asset0, c.Data.Asset1) {
		errs = append(errs, "data.asset_1: 两个资产不能相同")
	}
	if !c.Data.Interval.Valid() {
		errs = append(errs, fmt.Sprintf("data.interval: 无效的 K 线周期 %s", c.Data.Interval))
	}

	// 验证统计参数
	if !c.Stats.SpreadType.Valid() {
		errs = append(errs, fmt.Sprintf("stats.spread_type: 无效的价差类型 '%s'，有效值: static, dynamic", c.Stats.SpreadType))
	}
	if c.Stats.ZScoreWindow <= 1 {
		errs = append(errs, "stats.zscore_window: z-score 窗口必须大于 1")
	}
	if c.Stats.RollWindow <= 1 {
		errs = append(errs, "stats.roll_window: 滚动窗口必须大于 1")
	}

	// 验证回测参数（枚举与阈值关系；序列长度在回测时再校验）
	if !c.Backtest.TriggerIndicator.Valid() {
		errs = append(errs, fmt.Sprintf("backtest.trigger_indicator: 无效的触发指标 '%s'，有效值: zscore, spread", c.Backtest.TriggerIndicator))
	}
	if !c.Backtest.Relation.Valid() {
		errs = append(errs, fmt.Sprintf("backtest.relation: 无效的关系闸门 '%s'，有效值: coint, corr, ignore", c.Backtest.Relation))
	}
	if !c.Backtest.LongSeries.Valid() {
		errs = append(errs, fmt.Sprintf("backtest.long_series: 无效的多头腿 '%s'，有效值: series_0, series_1", c.Backtest.LongSeries))
	}
	if c.Backtest.CostPerLeg < 0 || c.Backtest.CostPerLeg > 1 {
		errs = append(errs, fmt.Sprintf("backtest.cost_per_leg: 单腿成本必须在 0-1 之间，当前值: %f", c.Backtest.CostPerLeg))
	}
	if c.Backtest.RetsWeightingS0 < 0 || c.Backtest.RetsWeightingS0 > 1 {
		errs = append(errs, fmt.Sprintf("backtest.rets_weighting_s0_perc: 权重占比必须在 0-1 之间，当前值: %f", c.Backtest.RetsWeightingS0))
	}
	if c.Backtest.StopLoss > 0 {
		errs = append(errs, "backtest.stop_loss: 止损阈值必须为负数或 0")
	}
	if c.Backtest.LongThresh > c.Backtest.ShortThresh {
		errs = append(errs, "backtest.long_thresh: 开多阈值不能高于开空阈值")
	}
	if c.Backtest.LongCloseThresh < c.Backtest.LongThresh {
		errs = append(errs, "backtest.long_close_thresh: 平多阈值不能低于开多阈值")
	}
	if c.Backtest.ShortCloseThresh > c.Backtest.ShortThresh {
		errs = append(errs, "backtest.short_close_thresh: 平空阈值不能高于开空阈值")
	}

	// 验证 live 模式配置
	if c.App.Mode == ModeLive {
		if c.Stream.URL == "" {
			errs = append(errs, "stream.url: live 模式下 WebSocket 地址不能为空")
		}
		if c.Data.Exchange != "binance" {
			errs = append(errs, "data.exchange: live 模式目前仅支持 binance")
		}
	}

	// 验证输出配置
	if c.Output.BufferSize < 0 {
		errs = append(errs, "output.buffer_size: 缓冲区大小不能为负数")
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
