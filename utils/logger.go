package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel 日志级别类型
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel 解析配置中的日志级别，无法识别时返回INFO
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Logger 日志记录器结构
type Logger struct {
	level     LogLevel
	file      *os.File
	mirror    io.Writer
	mutex     sync.Mutex
	maxSize   int64
	maxFiles  int
	logDir    string
	logPrefix string
}

// LogEntry 日志条目结构
type LogEntry struct {
	Timestamp string            `json:"timestamp"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	File      string            `json:"file,omitempty"`
	Line      int               `json:"line,omitempty"`
	Function  string            `json:"function,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// NewLogger 创建写入文件的日志记录器，maxSize<=0 时不轮转
func NewLogger(logDir, logPrefix string, level LogLevel, maxSize int64, maxFiles int) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	logFile := filepath.Join(logDir, logPrefix+".log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}

	return &Logger{
		level:     level,
		file:      file,
		maxSize:   maxSize,
		maxFiles:  maxFiles,
		logDir:    logDir,
		logPrefix: logPrefix,
	}, nil
}

// NewWriterLogger 创建只写入指定writer的日志记录器，用于标准输出和测试
func NewWriterLogger(w io.Writer, level LogLevel) *Logger {
	return &Logger{level: level, mirror: w}
}

// SetMirror 设置镜像输出（例如同时输出到stdout）
func (l *Logger) SetMirror(w io.Writer) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.mirror = w
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level LogLevel) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.level = level
}

func (l *Logger) enabled(level LogLevel) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.level <= level
}

// Debug 记录DEBUG级别日志
func (l *Logger) Debug(message string, context map[string]string) {
	l.logAt(DEBUG, message, context)
}

// Info 记录INFO级别日志
func (l *Logger) Info(message string, context map[string]string) {
	l.logAt(INFO, message, context)
}

// Warn 记录WARN级别日志
func (l *Logger) Warn(message string, context map[string]string) {
	l.logAt(WARN, message, context)
}

// Error 记录ERROR级别日志
func (l *Logger) Error(message string, context map[string]string) {
	l.logAt(ERROR, message, context)
}

// Fatal 记录FATAL级别日志
func (l *Logger) Fatal(message string, context map[string]string) {
	l.logAt(FATAL, message, context)
}

// logAt 记录日志的内部方法，只能由 Logger 方法或全局函数直接调用，
// 否则调用者信息会错位
func (l *Logger) logAt(level LogLevel, message string, context map[string]string) {
	if !l.enabled(level) {
		return
	}
	file, line, funcName := caller(callerSkip)

	entry := &LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		File:      file,
		Line:      line,
		Function:  funcName,
		Context:   context,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fallback := fmt.Sprintf("%s [%s] %s (%s:%d %s)\n",
			entry.Timestamp, entry.Level, entry.Message, entry.File, entry.Line, entry.Function)
		l.write([]byte(fallback))
		return
	}

	l.write(append(data, '\n'))
}

// callerSkip 跳过 caller -> logAt -> Logger.Xxx/utils.Xxx
const callerSkip = 3

func caller(skip int) (string, int, string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", 0, "unknown"
	}
	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}
		if idx := strings.LastIndex(funcName, "."); idx >= 0 {
			funcName = funcName[idx+1:]
		}
	}
	return filepath.Base(file), line, funcName
}

// write 写入日志数据
func (l *Logger) write(data []byte) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file != nil {
		if l.needRotate() {
			l.rotate()
		}
		l.file.Write(data)
	}
	if l.mirror != nil {
		l.mirror.Write(data)
	}
}

// needRotate 检查是否需要轮转日志
func (l *Logger) needRotate() bool {
	if l.maxSize <= 0 {
		return false
	}

	info, err := l.file.Stat()
	if err != nil {
		return false
	}

	return info.Size() >= l.maxSize
}

// rotate 轮转日志文件
func (l *Logger) rotate() {
	l.file.Close()

	currentFile := filepath.Join(l.logDir, l.logPrefix+".log")
	rotateFile := filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", l.logPrefix, time.Now().Format("20060102_150405")))
	os.Rename(currentFile, rotateFile)

	l.cleanup()

	file, err := os.OpenFile(currentFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// 文件不可用时退回到标准错误输出
		l.file = nil
		if l.mirror == nil {
			l.mirror = os.Stderr
		}
		return
	}

	l.file = file
}

// cleanup 清理多余的日志文件
func (l *Logger) cleanup() {
	if l.maxFiles <= 0 {
		return
	}

	pattern := filepath.Join(l.logDir, l.logPrefix+"_*.log")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}

	// 文件名带时间戳，字典序即时间序
	sort.Strings(matches)
	for i := 0; i < len(matches)-l.maxFiles; i++ {
		os.Remove(matches[i])
	}
}

// Close 关闭日志记录器
func (l *Logger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
