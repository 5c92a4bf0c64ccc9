// Package logging 构建全局使用的 logrus 日志器。
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config 日志配置
type Config struct {
	Level   string    // debug | info | warn | error
	Format  string    // text | json
	Verbose bool      // 未指定级别时使用 debug
	Output  io.Writer // 默认 os.Stderr
}

// New 按配置创建日志器
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch strings.ToLower(cfg.Level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		if cfg.Verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
	}
	return logger
}

// LevelForDebug 将 DEBUGLEVEL 选项映射为日志级别：1 至少为 debug，2 及以上为 trace
func LevelForDebug(logger *logrus.Logger, debugLevel int) {
	lvl := logrus.DebugLevel
	switch {
	case debugLevel <= 0:
		return
	case debugLevel >= 2:
		lvl = logrus.TraceLevel
	}
	if logger.GetLevel() < lvl {
		logger.SetLevel(lvl)
	}
}
