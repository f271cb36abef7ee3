package pricing

import "fmt"

// MatchSeries 对齐两条历史序列
// 末位时间标签必须一致，否则返回 ErrSeriesMismatch；
// 长度不同时按较短长度保留共同尾部，截断根数记入 Truncated。
func MatchSeries(asset0, asset1 *HistoricalPrices) (*PairPrices, error) {
	if len(asset0.Labels) == 0 || len(asset1.Labels) == 0 {
		return nil, fmt.Errorf("%w: 序列为空 (len0=%d len1=%d)",
			ErrSeriesMismatch, len(asset0.Labels), len(asset1.Labels))
	}
	if len(asset0.Labels) != len(asset0.Prices) || len(asset1.Labels) != len(asset1.Prices) {
		return nil, fmt.Errorf("%w: 标签与价格长度不一致", ErrSeriesMismatch)
	}

	last0 := asset0.Labels[len(asset0.Labels)-1]
	last1 := asset1.Labels[len(asset1.Labels)-1]
	if last0 != last1 {
		return nil, fmt.Errorf("%w: 末位标签 %d != %d", ErrSeriesMismatch, last0, last1)
	}

	len0 := len(asset0.Labels)
	len1 := len(asset1.Labels)
	if len0 == len1 {
		return &PairPrices{
			Series0: asset0.Prices,
			Series1: asset1.Prices,
			Labels:  asset0.Labels,
		}, nil
	}

	// 保留共同尾部，截断较长序列的头部
	lowest := len0
	if len1 < lowest {
		lowest = len1
	}
	truncated := len0 - lowest
	if len1-lowest > truncated {
		truncated = len1 - lowest
	}

	return &PairPrices{
		Series0: asset0.Prices[len0-lowest:],
		Series1: asset1.Prices[len1-lowest:],
		Labels:  asset0.Labels[len0-lowest:],
		Truncated: truncated,
	}, nil
}
