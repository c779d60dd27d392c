package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/projectdiscovery/gologger/levels"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// fileMirror 将控制台日志同步写入滚动日志文件
type fileMirror struct {
	logger *logrus.Logger
	writer *lumberjack.Logger
}

func newFileMirror(cfg *LogConfig) (*fileMirror, error) {
	dir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    positiveOr(cfg.MaxSize, 10),
		MaxBackups: positiveOr(cfg.MaxBackups, 3),
		MaxAge:     positiveOr(cfg.MaxAge, 30),
		LocalTime:  true,
	}

	l := logrus.New()
	l.SetOutput(writer)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	return &fileMirror{logger: l, writer: writer}, nil
}

// Write 写入一条日志（级别过滤已在控制台侧完成）
func (m *fileMirror) Write(level levels.Level, message string) {
	switch level {
	case levels.LevelDebug:
		m.logger.Debug(message)
	case levels.LevelWarning:
		m.logger.Warn(message)
	case levels.LevelError:
		m.logger.Error(message)
	case levels.LevelFatal:
		// logrus.Fatal 会直接退出进程，这里按 error 记录，由调用方负责退出
		m.logger.WithField("fatal", true).Error(message)
	default:
		m.logger.Info(message)
	}
}

// Close 关闭底层文件
func (m *fileMirror) Close() {
	if m.writer != nil {
		m.writer.Close()
	}
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
