package binance

import (
	"encoding/json"
	"fmt"
	"strings"

	"pairs-trading-analyzer/internal/util/fastparse"
	"pairs-trading-analyzer/internal/util/timeutil"
)

// Parser Binance K 线消息解析器
type Parser struct {
	// symbols 订阅的交易对集合（大写），用于过滤未订阅符号
	symbols map[string]struct{}
}

// NewParser 创建 Binance K 线消息解析器
// 参数 symbols: 订阅的交易对列表（大小写不敏感）
func NewParser(symbols []string) *Parser {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = struct{}{}
	}
	return &Parser{symbols: set}
}

// Parse 解析 Binance WebSocket 消息为 Candle
// 非 kline 消息或未订阅符号返回 nil, nil。
func (p *Parser) Parse(data []byte) (*Candle, error) {
	var msg KlineUpdate
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("解析 Binance 消息失败: %w", err)
	}

	if msg.EventType != "kline" {
		return nil, nil
	}

	symbol := strings.ToUpper(msg.Symbol)
	if symbol == "" {
		return nil, nil
	}
	if _, ok := p.symbols[symbol]; !ok {
		return nil, nil
	}

	closePx, err := fastparse.ParseFloat(msg.Kline.Close)
	if err != nil {
		return nil, fmt.Errorf("解析收盘价失败 (%s): %w", msg.Kline.Close, err)
	}

	return &Candle{
		Symbol:      symbol,
		OpenTimeSec: uint64(timeutil.MsToSec(msg.Kline.OpenTimeMs)),
		Close:       closePx,
		Final:       msg.Kline.IsFinal,
	}, nil
}
