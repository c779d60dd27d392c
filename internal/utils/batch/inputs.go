package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vulnmerge/internal/core/logger"
)

// InputScanner 输入文件收集器
type InputScanner struct {
	extensions []string
}

// NewInputScanner 创建收集器，extensions 如 ".xls", ".xlsx"（不区分大小写）
func NewInputScanner(extensions []string) *InputScanner {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return &InputScanner{extensions: exts}
}

// Accepts 文件名是否为待处理的表格文件（忽略 Office 临时文件 ~$xxx）
func (s *InputScanner) Accepts(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	lower := strings.ToLower(name)
	for _, ext := range s.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ScanDir 列出目录下的表格文件（不递归），按目录列表顺序（文件名排序）返回
func (s *InputScanner) ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("无法读取输入目录: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !s.Accepts(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	logger.Debugf("目录 %s 中找到 %d 个表格文件", dir, len(files))
	return files, nil
}

// ParseListFile 从列表文件读取输入文件路径，每行一个，跳过空行和 # 注释
// 相对路径以列表文件所在目录为基准，重复路径只保留第一次出现
func (s *InputScanner) ParseListFile(listPath string) ([]string, error) {
	logger.Debugf("开始解析文件列表: %s", listPath)

	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("无法打开文件列表: %w", err)
	}
	defer file.Close()

	base := filepath.Dir(listPath)
	seen := make(map[string]bool)
	var files []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		line = filepath.Clean(line)
		if seen[line] {
			logger.Debugf("发现重复文件: %s", line)
			continue
		}
		if !s.Accepts(filepath.Base(line)) {
			logger.Warnf("忽略非表格文件: %s", line)
			continue
		}
		seen[line] = true
		files = append(files, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取文件时发生错误: %w", err)
	}

	logger.Debugf("从文件列表解析到 %d 个文件", len(files))
	return files, nil
}
