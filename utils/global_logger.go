package utils

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	globalMutex  sync.RWMutex
)

// LogConfig 全局日志配置
type LogConfig struct {
	Dir      string `json:"dir"`
	Prefix   string `json:"prefix"`
	Level    string `json:"level"`
	MaxSize  int64  `json:"maxSize"`
	MaxFiles int    `json:"maxFiles"`
	Stdout   bool   `json:"stdout"`
}

// InitGlobalLogger 按配置初始化全局日志记录器；目录为空时只输出到标准输出
func InitGlobalLogger(cfg LogConfig) error {
	level := ParseLogLevel(cfg.Level)

	var logger *Logger
	if cfg.Dir == "" {
		logger = NewWriterLogger(os.Stdout, level)
	} else {
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = "clipper"
		}
		l, err := NewLogger(cfg.Dir, prefix, level, cfg.MaxSize, cfg.MaxFiles)
		if err != nil {
			return err
		}
		if cfg.Stdout {
			l.SetMirror(os.Stdout)
		}
		logger = l
	}

	SetGlobalLogger(logger)
	return nil
}

// SetGlobalLogger 替换全局日志记录器，测试中用于捕获输出
func SetGlobalLogger(logger *Logger) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalLogger = logger
}

// GetGlobalLogger 获取全局日志记录器实例
func GetGlobalLogger() *Logger {
	globalMutex.RLock()
	logger := globalLogger
	globalMutex.RUnlock()
	if logger != nil {
		return logger
	}

	globalMutex.Lock()
	defer globalMutex.Unlock()
	if globalLogger == nil {
		globalLogger = NewWriterLogger(os.Stderr, INFO)
	}
	return globalLogger
}

// SetGlobalLoggerLevel 设置全局日志级别
func SetGlobalLoggerLevel(level LogLevel) {
	GetGlobalLogger().SetLevel(level)
}

// Debug 记录DEBUG级别日志
func Debug(message string, context map[string]string) {
	GetGlobalLogger().logAt(DEBUG, message, context)
}

// Info 记录INFO级别日志
func Info(message string, context map[string]string) {
	GetGlobalLogger().logAt(INFO, message, context)
}

// Warn 记录WARN级别日志
func Warn(message string, context map[string]string) {
	GetGlobalLogger().logAt(WARN, message, context)
}

// Error 记录ERROR级别日志
func Error(message string, context map[string]string) {
	GetGlobalLogger().logAt(ERROR, message, context)
}

// Fatal 记录FATAL级别日志
func Fatal(message string, context map[string]string) {
	GetGlobalLogger().logAt(FATAL, message, context)
}
