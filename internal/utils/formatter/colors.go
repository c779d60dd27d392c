package formatter

import (
	"runtime"
	"strconv"

	"go.uber.org/atomic"
)

// ANSI颜色代码常量
const (
	ColorReset  = "\033[0m"  // 重置
	ColorGreen  = "\033[32m" // 绿色
	ColorRed    = "\033[31m" // 红色
	ColorYellow = "\033[33m" // 黄色
	ColorBlue   = "\033[34m" // 蓝色
	ColorBold   = "\033[1m"  // 加粗
	ColorGray   = "\033[90m" // 灰色
)

var (
	windowsANSISupported = atomic.NewBool(false)
	globalColorEnabled   = atomic.NewBool(true)
)

// FormatSuccess 成功结果（绿色）
func FormatSuccess(s string) string {
	return colorize(ColorGreen, s)
}

// FormatWarning 跳过类结果（黄色）
func FormatWarning(s string) string {
	return colorize(ColorYellow, s)
}

// FormatError 失败结果（加粗红色）
func FormatError(s string) string {
	return colorize(ColorBold+ColorRed, s)
}

// FormatNumber 数字统一蓝色
func FormatNumber(num int) string {
	return colorize(ColorBlue, strconv.Itoa(num))
}

// FormatPath 文件路径（灰色）
func FormatPath(path string) string {
	return colorize(ColorGray, path)
}

// FormatSeverity 按风险等级着色：高 红，中 黄，低 绿
func FormatSeverity(level string) string {
	switch level {
	case "高":
		return FormatError(level)
	case "中":
		return FormatWarning(level)
	case "低":
		return FormatSuccess(level)
	default:
		return level
	}
}

func colorize(color, s string) string {
	if s == "" || !shouldUseColors() {
		return s
	}
	return color + s + ColorReset
}

// shouldUseColors 配置允许且平台支持时使用颜色
func shouldUseColors() bool {
	if !globalColorEnabled.Load() {
		return false
	}
	if runtime.GOOS == "windows" {
		return windowsANSISupported.Load()
	}
	return true
}

// SetWindowsANSISupported 设置Windows ANSI支持状态
func SetWindowsANSISupported(supported bool) {
	windowsANSISupported.Store(supported)
}

// SetColorEnabled 控制全局颜色输出
func SetColorEnabled(enabled bool) {
	globalColorEnabled.Store(enabled)
}

// ColorsEnabled 返回当前颜色输出状态
func ColorsEnabled() bool {
	return globalColorEnabled.Load()
}
