package backtest

// Position 持仓状态
// 信号序列的元素即持仓状态：0 空仓、1 多价差、-1 空价差。
type Position int

const (
	// Flat 空仓
	Flat Position = 0
	// Long 多价差（多多头腿、空另一腿）
	Long Position = 1
	// Short 空价差
	Short Position = -1
)

// String 持仓状态可读名
func (p Position) String() string {
	switch p {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}
