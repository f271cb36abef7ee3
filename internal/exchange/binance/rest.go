package binance

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

// DefaultRestURL Binance 合约行情 REST 地址
const DefaultRestURL = "https://fapi.binance.com"

// restMaxLimit 单次调用最大 K 线根数（官方上限 1000，预留边界冗余）
const restMaxLimit = 995

// RestClient Binance 历史 K 线 REST 客户端
// 实现 pricing.Source。
type RestClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRestClient 创建 Binance REST 客户端
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
		logger: logger.Named("binance-rest"),
	}
}

// Name 数据源名
func (c *RestClient) Name() string { return "binance" }

// FetchCandles 拉取历史收盘价
// 按周期切分调用窗口，逐窗拉取后拼接去重。
// 窗口间按次数递增休眠，保护接口限频；超过 20 窗直接截止。
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
	c.logger.Debug("Binance K 线拉取完成",
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

// fetchWindow 拉取单个时间窗口的 K 线
// 响应为数组的数组：[0] 开盘时间（毫秒数值）、[4] 收盘价（字符串）。
func (c *RestClient) fetchWindow(ctx context.Context, symbol, intervalStr string, w pricing.CallWindow) ([]uint64, []float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", intervalStr)
	q.Set("startTime", fastparse.FormatInt(timeutil.SecToMs(w.From)))
	q.Set("endTime", fastparse.FormatInt(timeutil.SecToMs(w.To)))
	q.Set("limit", fastparse.FormatInt(restMaxLimit))

	reqURL := fmt.Sprintf("%s/fapi/v1/klines?%s", c.baseURL, q.Encode())

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

// decodeKlines 解码 Binance K 线数组
// 无法识别的行跳过，不中断整窗。
func decodeKlines(body []byte) ([]uint64, []float64, error) {
	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("解析 K 线响应失败: %w", err)
	}

	labels := make([]uint64, 0, len(raw))
	prices := make([]float64, 0, len(raw))
	for _, candle := range raw {
		if len(candle) < 5 {
			continue
		}
		openMs, ok := candle[0].(float64)
		if !ok {
			continue
		}
		closeStr, ok := candle[4].(string)
		if !ok {
			continue
		}
		labels = append(labels, uint64(timeutil.MsToSec(int64(openMs))))
		prices = append(prices, fastparse.MustParseFloat(closeStr))
	}
	return labels, prices, nil
}
