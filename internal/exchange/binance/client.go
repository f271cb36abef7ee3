// Package binance 实现 Binance 交易所的 WebSocket K 线客户端。
// 连接地址: wss://fstream.binance.com/ws
// 订阅频道: kline_<interval>
// 心跳机制: 协议层 ping/pong
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pairs-trading-analyzer/internal/config"
	"pairs-trading-analyzer/internal/util/backoff"
	"pairs-trading-analyzer/internal/util/timeutil"
)

// StreamClient Binance WebSocket K 线客户端
type StreamClient struct {
	// cfg WebSocket 配置
	cfg *config.StreamConfig
	// symbols 订阅的交易对（大写）
	symbols []string
	// intervalStr Binance 周期字符串（如 1h）
	intervalStr string
	// logger 日志记录器
	logger *zap.Logger
	// parser 消息解析器
	parser *Parser

	// conn WebSocket 连接
	conn *websocket.Conn
	// connMu 连接锁
	connMu sync.Mutex

	// candleCh K 线事件输出通道
	candleCh chan *Candle

	// metrics 连接指标
	metrics ConnectionMetrics
	// metricsMu 指标锁
	metricsMu sync.RWMutex

	// lastMsgMs 最后消息时间（毫秒）
	lastMsgMs int64
	// updateCount 更新计数（用于计算 QPS）
	updateCount int64
	// backoff 重连退避
	backoff *backoff.Backoff
	// closed 是否已关闭
	closed int32
	// done 关闭信号，Close 时关闭
	done chan struct{}

	// parseErrSampleCount 解析错误计数（用于采样日志）
	parseErrSampleCount uint64
	// lastParseErrLogMs 上次解析错误日志时间（毫秒）
	lastParseErrLogMs int64
}

// NewStreamClient 创建 Binance WebSocket K 线客户端
// 参数 cfg: WebSocket 配置
// 参数 symbols: 订阅的交易对列表
// 参数 intervalStr: Binance 周期字符串（由 IntervalString 得到）
func NewStreamClient(cfg *config.StreamConfig, symbols []string, intervalStr string, logger *zap.Logger) *StreamClient {
	upper := make([]string, len(symbols))
	for i, s := range symbols {
		upper[i] = strings.ToUpper(s)
	}
	return &StreamClient{
		cfg:         cfg,
		symbols:     upper,
		intervalStr: intervalStr,
		logger:      logger.Named("binance"),
		parser:      NewParser(upper),
		candleCh:    make(chan *Candle, 256),
		backoff:     backoff.NewDefault(),
		done:        make(chan struct{}),
	}
}

// Connect 建立 WebSocket 连接
// 参数 ctx: 上下文，用于取消连接
func (c *StreamClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	header := http.Header{}
	header.Set("User-Agent", "pairs-trading-analyzer/1.0")
	header.Set("Origin", "https://www.binance.com")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("连接 Binance WebSocket 失败: %w", err)
	}

	readTimeout := time.Duration(c.readTimeoutMs()) * time.Millisecond
	if readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			atomic.StoreInt64(&c.lastMsgMs, timeutil.NowMs())
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
	}

	c.conn = conn
	c.backoff.Reset()
	c.logger.Info("Binance WebSocket 连接成功", zap.String("url", c.cfg.URL))
	return nil
}

// Subscribe 订阅交易对
// 订阅 kline_<interval> 行情流
func (c *StreamClient) Subscribe() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("WebSocket 未连接")
	}

	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		// Binance 订阅参数要求小写 symbol
		params = append(params, fmt.Sprintf("%s@kline_%s", strings.ToLower(s), c.intervalStr))
	}

	req := SubscribeRequest{
		Method: "SUBSCRIBE",
		Params: params,
		ID:     1,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("序列化订阅请求失败: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("发送订阅请求失败: %w", err)
	}

	c.logger.Info("Binance 订阅请求已发送", zap.Strings("params", params))
	return nil
}

// Run 启动客户端主循环
// 包含读取循环和指标统计
func (c *StreamClient) Run(ctx context.Context) {
	go c.pingLoop(ctx)
	go c.metricsLoop(ctx)
	c.readLoop(ctx)
}

// readLoop 读取主循环
// 事件通道由本循环独占关闭，Close 只发关闭信号，
// 避免向已关闭通道发送。
func (c *StreamClient) readLoop(ctx context.Context) {
	defer close(c.candleCh)

	readTimeout := time.Duration(c.readTimeoutMs()) * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			c.reconnect(ctx)
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}
			c.logger.Warn("读取 Binance 消息失败", zap.Error(err))
			c.incrementReconnectCount()
			c.reconnect(ctx)
			continue
		}

		if readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		}

		atomic.StoreInt64(&c.lastMsgMs, timeutil.NowMs())

		candle, err := c.parser.Parse(data)
		if err != nil {
			c.incrementParseErrorCount()
			c.maybeLogParseError(err, data)
			continue
		}
		if candle == nil {
			continue
		}

		atomic.AddInt64(&c.updateCount, 1)
		select {
		case c.candleCh <- candle:
		case <-c.done:
			return
		default:
			c.logger.Warn("Binance candleCh 已满，丢弃事件")
		}
	}
}

func (c *StreamClient) pingLoop(ctx context.Context) {
	intervalMs := c.cfg.PingIntervalMs
	if intervalMs <= 0 {
		intervalMs = c.readTimeoutMs() / 2
		if intervalMs <= 0 {
			intervalMs = 15000
		}
	}

	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			if conn == nil {
				c.connMu.Unlock()
				continue
			}

			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				c.connMu.Unlock()
				c.logger.Warn("发送 Binance ping 失败", zap.Error(err))
				continue
			}
			c.connMu.Unlock()
		}
	}
}

func (c *StreamClient) metricsLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastCount int64

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			count := atomic.LoadInt64(&c.updateCount)
			qps := float64(count - lastCount)
			lastCount = count

			lastMsg := atomic.LoadInt64(&c.lastMsgMs)
			var ageMs int64
			if lastMsg > 0 {
				ageMs = timeutil.NowMs() - lastMsg
			}

			c.metricsMu.Lock()
			c.metrics.UpdatesPerSec = qps
			c.metrics.LastMessageAgeMs = ageMs
			c.metricsMu.Unlock()
		}
	}
}

func (c *StreamClient) reconnect(ctx context.Context) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return
	}
	c.closeConn()

	delay := c.backoff.Next()
	c.logger.Info("Binance 准备重连", zap.Duration("delay", delay))

	if err := backoff.Sleep(ctx, delay); err != nil {
		return
	}
	if atomic.LoadInt32(&c.closed) == 1 {
		return
	}

	if err := c.Connect(ctx); err != nil {
		c.logger.Error("Binance 重连失败", zap.Error(err))
		return
	}
	if err := c.Subscribe(); err != nil {
		c.logger.Error("Binance 重新订阅失败", zap.Error(err))
	}
}

func (c *StreamClient) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close 关闭客户端，可重复调用
// 事件通道由读取循环在退出时关闭，这里只发信号并断开连接。
func (c *StreamClient) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.done)
	c.closeConn()
	c.logger.Info("Binance 客户端已关闭")
	return nil
}

// CandleCh 获取 K 线事件通道
// 通道在读取循环退出时关闭。
func (c *StreamClient) CandleCh() <-chan *Candle {
	return c.candleCh
}

// Metrics 获取连接指标
func (c *StreamClient) Metrics() ConnectionMetrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

func (c *StreamClient) incrementReconnectCount() {
	c.metricsMu.Lock()
	c.metrics.ReconnectCount++
	c.metricsMu.Unlock()
}

func (c *StreamClient) incrementParseErrorCount() {
	c.metricsMu.Lock()
	c.metrics.ParseErrorCount++
	c.metricsMu.Unlock()
}

func (c *StreamClient) readTimeoutMs() int {
	if c.cfg.ReadTimeoutMs > 0 {
		return c.cfg.ReadTimeoutMs
	}
	// 未配置时使用 30s
	return 30000
}

// maybeLogParseError 采样记录解析错误原始消息，避免刷盘
// 采样策略：每 100 次错误记录 1 条，且同一类日志至少间隔 1 分钟。
func (c *StreamClient) maybeLogParseError(err error, data []byte) {
	count := atomic.AddUint64(&c.parseErrSampleCount, 1)
	if count%100 != 0 {
		return
	}

	nowMs := timeutil.NowMs()
	last := atomic.LoadInt64(&c.lastParseErrLogMs)
	if last > 0 && nowMs-last < time.Minute.Milliseconds() {
		return
	}
	atomic.StoreInt64(&c.lastParseErrLogMs, nowMs)

	sample := data
	if len(sample) > 200 {
		sample = sample[:200]
	}
	c.logger.Warn("解析 Binance 消息失败（采样）", zap.Error(err), zap.ByteString("data", sample))
}
