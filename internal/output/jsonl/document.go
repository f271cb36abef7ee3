package jsonl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDocument 将单个文档以缩进 JSON 写入文件
// 先写临时文件再改名，避免读到半写状态。
func WriteDocument(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("编码 JSON 文档失败: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("改名输出文件失败: %w", err)
	}
	return nil
}
