package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
)

// ===========================================
// vulnmerge日志系统 - gologger兼容层
// ===========================================

// LogConfig 日志配置结构
type LogConfig struct {
	Level       string `yaml:"level"`        // 日志级别
	ColorOutput bool   `yaml:"color_output"` // 彩色输出
	File        string `yaml:"file"`         // 日志文件路径，为空则只输出到控制台
	MaxSize     int    `yaml:"max_size"`     // 单个日志文件大小上限（MB）
	MaxBackups  int    `yaml:"max_backups"`  // 保留的旧日志文件数
	MaxAge      int    `yaml:"max_age"`      // 旧日志保留天数
}

// MergeLogger 日志封装器
// 控制台输出沿用简洁的 [LEVEL] 格式，可选镜像到滚动日志文件
type MergeLogger struct {
	config       *LogConfig
	currentLevel levels.Level
	stdout       io.Writer
	stderr       io.Writer
	mirror       *fileMirror
	mu           sync.Mutex
}

// 全局日志实例
var globalLogger *MergeLogger

// ===========================================
// 初始化和配置
// ===========================================

// InitializeLogger 初始化日志系统
func InitializeLogger(config *LogConfig) error {
	if config == nil {
		config = getDefaultLogConfig()
	}

	level := parseLogLevel(config.Level)
	gologger.DefaultLogger.SetMaxLevel(level)
	if !config.ColorOutput {
		os.Setenv("NO_COLOR", "1")
	}

	l := &MergeLogger{
		config:       config,
		currentLevel: level,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}

	if config.File != "" {
		mirror, err := newFileMirror(config)
		if err != nil {
			return fmt.Errorf("初始化日志文件失败: %w", err)
		}
		l.mirror = mirror
	}

	if globalLogger != nil {
		globalLogger.Close()
	}
	globalLogger = l
	return nil
}

// NewLogger 创建输出到指定 writer 的日志实例（测试使用）
func NewLogger(config *LogConfig, out io.Writer) *MergeLogger {
	if config == nil {
		config = getDefaultLogConfig()
	}
	return &MergeLogger{
		config:       config,
		currentLevel: parseLogLevel(config.Level),
		stdout:       out,
		stderr:       out,
	}
}

// SetGlobalLogger 替换全局日志实例，返回原实例
func SetGlobalLogger(l *MergeLogger) *MergeLogger {
	prev := globalLogger
	globalLogger = l
	return prev
}

// parseLogLevel 解析日志级别
func parseLogLevel(levelStr string) levels.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return levels.LevelDebug
	case "info":
		return levels.LevelInfo
	case "warn", "warning":
		return levels.LevelWarning
	case "error":
		return levels.LevelError
	case "fatal":
		return levels.LevelFatal
	default:
		return levels.LevelInfo
	}
}

// getDefaultLogConfig 获取默认日志配置
func getDefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:       "info",
		ColorOutput: true,
	}
}

// ===========================================
// 基础日志方法
// ===========================================

// Info 信息级别日志
func (l *MergeLogger) Info(args ...interface{}) {
	l.printWithFormat(levels.LevelInfo, fmt.Sprint(args...))
}

// Infof 格式化信息级别日志
func (l *MergeLogger) Infof(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelInfo, fmt.Sprintf(format, args...))
}

// Debug 调试级别日志
func (l *MergeLogger) Debug(args ...interface{}) {
	l.printWithFormat(levels.LevelDebug, fmt.Sprint(args...))
}

// Debugf 格式化调试级别日志
func (l *MergeLogger) Debugf(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelDebug, fmt.Sprintf(format, args...))
}

// Error 错误级别日志
func (l *MergeLogger) Error(args ...interface{}) {
	l.printWithFormat(levels.LevelError, fmt.Sprint(args...))
}

// Errorf 格式化错误级别日志
func (l *MergeLogger) Errorf(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelError, fmt.Sprintf(format, args...))
}

// Warn 警告级别日志
func (l *MergeLogger) Warn(args ...interface{}) {
	l.printWithFormat(levels.LevelWarning, fmt.Sprint(args...))
}

// Warnf 格式化警告级别日志
func (l *MergeLogger) Warnf(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelWarning, fmt.Sprintf(format, args...))
}

// Fatalf 格式化致命错误日志
func (l *MergeLogger) Fatalf(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelFatal, fmt.Sprintf(format, args...))
	l.Close()
	os.Exit(1)
}

// Close 关闭日志文件
func (l *MergeLogger) Close() {
	if l == nil || l.mirror == nil {
		return
	}
	l.mirror.Close()
	l.mirror = nil
}

// printWithFormat 使用 [LEVEL] message 格式打印日志
func (l *MergeLogger) printWithFormat(level levels.Level, message string) {
	if severity(level) > severity(l.currentLevel) {
		return
	}

	levelText, levelColor := levelTag(level)

	var output string
	if l.config.ColorOutput {
		output = fmt.Sprintf("%s[%s]\033[0m %s", levelColor, levelText, message)
	} else {
		output = fmt.Sprintf("[%s] %s", levelText, message)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if severity(level) <= severity(levels.LevelError) {
		fmt.Fprintln(l.stderr, output)
	} else {
		fmt.Fprintln(l.stdout, output)
	}

	if l.mirror != nil {
		l.mirror.Write(level, message)
	}
}

// severity 级别排序：gologger 的 Info 数值小于 Warning，不能直接比较
func severity(level levels.Level) int {
	switch level {
	case levels.LevelFatal:
		return 0
	case levels.LevelError:
		return 1
	case levels.LevelWarning:
		return 2
	case levels.LevelInfo:
		return 3
	default:
		return 4
	}
}

// levelTag 返回简短级别名称及颜色
func levelTag(level levels.Level) (string, string) {
	switch level {
	case levels.LevelDebug:
		return "DBG", "\033[36m"
	case levels.LevelWarning:
		return "WRN", "\033[33m"
	case levels.LevelError:
		return "ERR", "\033[31m"
	case levels.LevelFatal:
		return "FTL", "\033[35m"
	default:
		return "INF", "\033[34m"
	}
}

// ===========================================
// 全局日志函数
// ===========================================

func current() *MergeLogger {
	if globalLogger != nil {
		return globalLogger
	}
	return NewLogger(nil, os.Stdout)
}

// Info 全局信息日志
func Info(args ...interface{}) { current().Info(args...) }

// Infof 全局格式化信息日志
func Infof(format string, args ...interface{}) { current().Infof(format, args...) }

// Debug 全局调试日志
func Debug(args ...interface{}) { current().Debug(args...) }

// Debugf 全局格式化调试日志
func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }

// Error 全局错误日志
func Error(args ...interface{}) { current().Error(args...) }

// Errorf 全局格式化错误日志
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }

// Warn 全局警告日志
func Warn(args ...interface{}) { current().Warn(args...) }

// Warnf 全局格式化警告日志
func Warnf(format string, args ...interface{}) { current().Warnf(format, args...) }

// Fatalf 全局格式化致命错误日志
func Fatalf(format string, args ...interface{}) { current().Fatalf(format, args...) }

// Close 关闭全局日志的文件输出
func Close() {
	if globalLogger != nil {
		globalLogger.Close()
	}
}
