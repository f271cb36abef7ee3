// Package timeutil 提供 K 线时间标签相关的工具函数。
// 交易所 REST/WS 接口普遍使用毫秒时间戳，内部标签统一为 Unix 秒。
package timeutil

import (
	"time"
)

// NowMs 获取当前时间的 Unix 毫秒时间戳
// 用于与交易所时间戳对比
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// SecToMs 将秒时间戳转换为毫秒
func SecToMs(sec int64) int64 {
	return sec * 1000
}

// MsToSec 将毫秒时间戳转换为秒
func MsToSec(ms int64) int64 {
	return ms / 1000
}

// AlignDown 将秒时间戳向下对齐到 K 线边界
// 参数 sec: Unix 秒
// 参数 barSec: 单根 K 线的秒数
func AlignDown(sec, barSec int64) int64 {
	if barSec <= 0 {
		return sec
	}
	return sec - sec%barSec
}
