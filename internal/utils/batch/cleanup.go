package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"vulnmerge/internal/core/logger"
)

// Confirmer 删除前的确认交互
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc 函数形式的 Confirmer
type ConfirmFunc func(question string) (bool, error)

// Confirm 实现 Confirmer
func (f ConfirmFunc) Confirm(question string) (bool, error) {
	return f(question)
}

// AlwaysConfirm 不询问直接确认
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// CleanupResult 索引文件清理结果
type CleanupResult struct {
	Deleted  []string
	Kept     []string
	NotFound []string
}

// Cleanup 逐个确认并删除输入目录下的指定文件（如扫描器导出的 index.xls）
// 确认失败或删除失败只记录日志，不中断后续处理
func Cleanup(dir string, names []string, confirmer Confirmer) CleanupResult {
	var result CleanupResult
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			logger.Infof("文件未找到: %s", path)
			result.NotFound = append(result.NotFound, path)
			continue
		}

		ok, err := confirmer.Confirm(fmt.Sprintf("确认要删除文件 %s 吗？", path))
		if err != nil {
			logger.Warnf("确认删除 %s 失败: %v", path, err)
			ok = false
		}
		if !ok {
			logger.Infof("未删除: %s", path)
			result.Kept = append(result.Kept, path)
			continue
		}

		if err := os.Remove(path); err != nil {
			logger.Errorf("删除 %s 失败: %v", path, err)
			result.Kept = append(result.Kept, path)
			continue
		}
		logger.Infof("已删除: %s", path)
		result.Deleted = append(result.Deleted, path)
	}
	return result
}
