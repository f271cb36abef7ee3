// Package jsonl 实现分析结果的文件输出。
// JSONL 流式写入用于实时信号记录，单文档 JSON 用于完整分析结果。
// 信号记录在调用方 goroutine 内完成 JSON 编码，后台 goroutine 只做
// 文件 I/O，并按固定周期自动 flush，保证信号落盘延迟有上界。
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// autoFlushInterval 后台自动 flush 周期
// 实时信号按 K 线收线节奏产生（分钟级），1s 落盘足够
const autoFlushInterval = time.Second

// Writer 异步 JSONL 信号写入器
// Write 编码后只投递编码行，文件 I/O 与 flush 在后台完成。
type Writer struct {
	// path 输出文件路径
	path string
	// lines 编码后的 JSONL 行
	lines chan []byte
	// flushCh 显式 flush 请求
	flushCh chan chan error

	closeOnce sync.Once
	closeErr  error
	closed    int32

	sendMu sync.Mutex

	wg sync.WaitGroup
}

// NewWriter 创建 JSONL 写入器
// 参数 path: 输出文件路径（追加写）
// 参数 bufferSize: 投递缓冲区大小（行数）
func NewWriter(path string, bufferSize int) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开输出文件失败: %w", err)
	}

	w := &Writer{
		path:    path,
		lines:   make(chan []byte, bufferSize),
		flushCh: make(chan chan error),
	}

	w.wg.Add(1)
	go w.loop(f)

	return w, nil
}

// Write 异步写入一条 JSONL 记录
// 编码失败立即返回错误，不投递。
func (w *Writer) Write(v any) error {
	if w == nil {
		return fmt.Errorf("writer 为空")
	}

	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("编码信号记录失败: %w", err)
	}

	if atomic.LoadInt32(&w.closed) == 1 {
		return fmt.Errorf("writer 已关闭")
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return fmt.Errorf("writer 已关闭")
	}
	w.lines <- line
	return nil
}

// Flush 强制 flush 文件缓冲区
func (w *Writer) Flush() error {
	if w == nil {
		return nil
	}
	if atomic.LoadInt32(&w.closed) == 1 {
		return nil
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return nil
	}
	done := make(chan error, 1)
	w.flushCh <- done
	return <-done
}

// Close 关闭写入器，落盘全部未写记录
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		atomic.StoreInt32(&w.closed, 1)
		w.sendMu.Lock()
		close(w.lines)
		w.sendMu.Unlock()
	})
	w.wg.Wait()
	return w.closeErr
}

func (w *Writer) loop(f *os.File) {
	defer w.wg.Done()
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20) // 1MB buffer
	ticker := time.NewTicker(autoFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				// 通道排空后 flush 并退出
				w.closeErr = bw.Flush()
				return
			}
			writeLine(bw, line)
		case done := <-w.flushCh:
			// 先排空已投递的行，flush 覆盖此前全部 Write
			w.drainPending(bw)
			done <- bw.Flush()
		case <-ticker.C:
			w.drainPending(bw)
			_ = bw.Flush()
		}
	}
}

// drainPending 非阻塞排空已投递的行
func (w *Writer) drainPending(bw *bufio.Writer) {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			writeLine(bw, line)
		default:
			return
		}
	}
}

func writeLine(bw *bufio.Writer, line []byte) {
	if _, err := bw.Write(line); err != nil {
		return
	}
	_ = bw.WriteByte('\n')
}
