package binance

// SubscribeRequest Binance WebSocket 订阅请求
// 订阅 kline_<interval> 行情流。
type SubscribeRequest struct {
	// Method 订阅方法: SUBSCRIBE
	Method string `json:"method"`
	// Params 订阅参数列表，如 "btcusdt@kline_1h"
	Params []string `json:"params"`
	// ID 请求 ID
	ID int64 `json:"id"`
}

// SubscribeResponse Binance WebSocket 订阅响应
// 通常形如 {"result":null,"id":1}。
type SubscribeResponse struct {
	// Result 结果（成功为 null）
	Result any `json:"result"`
	// ID 请求 ID
	ID int64 `json:"id"`
}

// KlineUpdate Binance K 线推送消息（kline）
// 字段映射：
// - e: 事件类型（kline）
// - E: 事件时间（毫秒）
// - s: Symbol（如 BTCUSDT）
// - k: K 线体
type KlineUpdate struct {
	// EventType 事件类型: kline
	EventType string `json:"e"`
	// EventTimeMs 事件时间（毫秒）
	EventTimeMs int64 `json:"E"`
	// Symbol 交易对（大写）
	Symbol string `json:"s"`
	// Kline K 线体
	Kline KlinePayload `json:"k"`
}

// KlinePayload Binance K 线体
type KlinePayload struct {
	// OpenTimeMs 开盘时间（毫秒）
	OpenTimeMs int64 `json:"t"`
	// CloseTimeMs 收盘时间（毫秒）
	CloseTimeMs int64 `json:"T"`
	// Interval 周期字符串（如 1h）
	Interval string `json:"i"`
	// Close 收盘价（字符串）
	Close string `json:"c"`
	// IsFinal 该根 K 线是否已收盘
	IsFinal bool `json:"x"`
}

// Candle 解析后的单根 K 线
type Candle struct {
	// Symbol 交易对
	Symbol string
	// OpenTimeSec 开盘时间（Unix 秒）
	OpenTimeSec uint64
	// Close 收盘价
	Close float64
	// Final 是否已收盘
	Final bool
}

// ConnectionMetrics 连接质量指标
type ConnectionMetrics struct {
	// ReconnectCount 重连次数
	ReconnectCount int64
	// ParseErrorCount 解析错误次数
	ParseErrorCount int64
	// UpdatesPerSec 每秒更新次数
	UpdatesPerSec float64
	// LastMessageAgeMs 最后消息距今时间（毫秒）
	LastMessageAgeMs int64
}
