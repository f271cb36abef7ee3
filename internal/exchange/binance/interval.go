package binance

import (
	"fmt"

	"pairs-trading-analyzer/internal/pricing"
)

// IntervalString 将 K 线周期转换为 Binance 接口字符串
// 仅支持 Binance 提供的周期档位，未知组合返回错误。
func IntervalString(iv pricing.Interval) (string, error) {
	switch iv.Unit {
	case pricing.UnitMin:
		switch iv.Step {
		case 5:
			return "5m", nil
		case 15:
			return "15m", nil
		case 30:
			return "30m", nil
		}
	case pricing.UnitHour:
		switch iv.Step {
		case 1:
			return "1h", nil
		case 2:
			return "2h", nil
		case 4:
			return "4h", nil
		case 6:
			return "6h", nil
		case 8:
			return "8h", nil
		case 12:
			return "12h", nil
		}
	case pricing.UnitDay:
		if iv.Step == 1 {
			return "1d", nil
		}
	}
	return "", fmt.Errorf("Binance 不支持的 K 线周期: %s", iv)
}
