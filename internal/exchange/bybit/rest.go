// Package bybit 实现 ByBit 交易所的历史 K 线 REST 客户端。
// 接口: GET /v5/market/kline (category=linear)
// 注意: ByBit 返回的 K 线按时间倒序（最新在前），拼接前需反转。
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"pairs-trading-analyzer/internal/pricing"
	"pairs-trading-analyzer/internal/util/backoff"
	"pairs-trading-analyzer/internal/util/fastparse"
	"pairs-trading-analyzer/internal/util/timeutil"
)

// DefaultRestURL ByBit 行情 REST 地址
const DefaultRestURL = "https://api.bybit.com"

// restMaxLimit 单次调用最大 K 线根数（官方上限 200，预留边界冗余）
const restMaxLimit = 195

// RestClient ByBit 历史 K 线 REST 客户端
// 实现 pricing.Source。
type RestClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRestClient 创建 ByBit REST 客户端
// 参数 baseURL: 接口地址，空串使用 DefaultRestURL
// 参数 timeoutMs: HTTP 请求超时时间（毫秒）
func NewRestClient(baseURL string, timeoutMs int, logger *zap.Logger) *RestClient {
	if baseURL == "" {
		baseURL = DefaultRestURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: time.Duration(timeoutMs) * time.Millisecond,
		},
		logger: logger.Named("bybit-rest"),
	}
}

// Name 数据源名
func (c *RestClient) Name() string { return "bybit" }

// IntervalString 将 K 线周期转换为 ByBit 接口字符串
// ByBit 以分钟数表示小时内周期，日线为 "D"。
func IntervalString(iv pricing.Interval) (string, error) {
	switch iv.Unit {
	case pricing.UnitMin:
		switch iv.Step {
		case 5:
			return "5", nil
		case 15:
			return "15", nil
		case 30:
			return "30", nil
		}
	case pricing.UnitHour:
		switch iv.Step {
		case 1:
			return "60", nil
		case 2:
			return "120", nil
		case 4:
			return "240", nil
		case 6:
			return "360", nil
		case 12:
			return "720", nil
		}
	case pricing.UnitDay:
		if iv.Step == 1 {
			return "D", nil
		}
	}
	return "", fmt.Errorf("ByBit 不支持的 K 线周期: %s", iv)
}

// FetchCandles 拉取历史收盘价
// ByBit 单窗上限较低，长周期会切分出更多调用窗口。
func (c *RestClient) FetchCandles(ctx context.Context, symbol string, iv pricing.Interval) (*pricing.HistoricalPrices, error) {
	intervalStr, err := IntervalString(iv)
	if err != nil {
		return nil, err
	}

	windows := pricing.PlanCalls(time.Now(), iv, restMaxLimit)
	if len(windows) == 0 {
		return nil, fmt.Errorf("K 线周期 %s 无有效调用窗口", iv)
	}

	var labels []uint64
	var prices []float64

	for callCount, w := range windows {
		if err := c.paceCall(ctx, callCount+1); err != nil {
			if err == errCallBudget {
				break
			}
			return nil, err
		}

		winLabels, winPrices, err := c.fetchWindow(ctx, symbol, intervalStr, w)
		if err != nil {
			return nil, fmt.Errorf("拉取 %s 窗口 [%d,%d] 失败: %w", symbol, w.From, w.To, err)
		}
		labels = append(labels, winLabels...)
		prices = append(prices, winPrices...)
	}

	labels, prices = pricing.DedupCandles(labels, prices)
	c.logger.Debug("ByBit K 线拉取完成",
		zap.String("symbol", symbol),
		zap.String("interval", intervalStr),
		zap.Int("bars", len(labels)))

	return &pricing.HistoricalPrices{Prices: prices, Labels: labels}, nil
}

// errCallBudget 超出单次拉取允许的调用窗口数
var errCallBudget = fmt.Errorf("超出调用窗口预算")

// paceCall 窗口间限频休眠
// 前 2 窗 50ms，3-7 窗 500ms，8-12 窗 1s，13-20 窗 2s，之后截止。
func (c *RestClient) paceCall(ctx context.Context, callCount int) error {
	var delay time.Duration
	switch {
	case callCount <= 2:
		delay = 50 * time.Millisecond
	case callCount <= 7:
		delay = 500 * time.Millisecond
	case callCount <= 12:
		delay = time.Second
	case callCount <= 20:
		delay = 2 * time.Second
	default:
		return errCallBudget
	}
	return backoff.Sleep(ctx, delay)
}

// klineResponse ByBit v5 K 线响应
type klineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	} `json:"result"`
}

// fetchWindow 拉取单个时间窗口的 K 线
func (c *RestClient) fetchWindow(ctx context.Context, symbol, intervalStr string, w pricing.CallWindow) ([]uint64, []float64, error) {
	q := url.Values{}
	q.Set("category", "linear")
	q.Set("symbol", symbol)
	q.Set("interval", intervalStr)
	q.Set("start", fastparse.FormatInt(timeutil.SecToMs(w.From)))
	q.Set("end", fastparse.FormatInt(timeutil.SecToMs(w.To)))
	q.Set("limit", fastparse.FormatInt(restMaxLimit))

	reqURL := fmt.Sprintf("%s/v5/market/kline?%s", c.baseURL, q.Encode())

	body, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, nil, err
	}
	return decodeKlines(body)
}

// doRequest 执行 HTTP GET 请求
func (c *RestClient) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "pairs-trading-analyzer/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP 状态码错误: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}
	return body, nil
}

// decodeKlines 解码 ByBit K 线响应
// result.list 每行: [0] 开始时间（毫秒字符串）、[4] 收盘价（字符串）。
// 行按时间倒序，输出前反转为升序；无法识别的行跳过。
func decodeKlines(body []byte) ([]uint64, []float64, error) {
	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("解析 K 线响应失败: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, nil, fmt.Errorf("ByBit 接口错误 (%d): %s", resp.RetCode, resp.RetMsg)
	}

	list := resp.Result.List
	labels := make([]uint64, 0, len(list))
	prices := make([]float64, 0, len(list))

	// 倒序遍历，得到升序序列
	for i := len(list) - 1; i >= 0; i-- {
		row := list[i]
		if len(row) < 5 {
			continue
		}
		startMs, err := fastparse.ParseUint(row[0])
		if err != nil {
			continue
		}
		closePx, err := fastparse.ParseFloat(row[4])
		if err != nil {
			continue
		}
		labels = append(labels, startMs/1000)
		prices = append(prices, closePx)
	}
	return labels, prices, nil
}
