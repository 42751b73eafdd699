package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("debug"))
	assert.Equal(t, WARN, ParseLogLevel("WARN"))
	assert.Equal(t, ERROR, ParseLogLevel("error"))
	assert.Equal(t, INFO, ParseLogLevel(""))
	assert.Equal(t, INFO, ParseLogLevel("verbose"))
}

func TestLogger_WritesJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, INFO)

	logger.Info("任务完成", map[string]string{"jobId": "job42"})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "任务完成", entry.Message)
	assert.Equal(t, "job42", entry.Context["jobId"])
	assert.Equal(t, "logger_test.go", entry.File)
	assert.Equal(t, "TestLogger_WritesJSONEntry", entry.Function)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, WARN)

	logger.Debug("debug", nil)
	logger.Info("info", nil)
	assert.Zero(t, buf.Len())

	logger.Warn("warn", nil)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	logger.SetLevel(DEBUG)
	logger.Debug("debug", nil)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestGlobalLogger_ReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	previous := GetGlobalLogger()
	SetGlobalLogger(NewWriterLogger(&buf, DEBUG))
	defer SetGlobalLogger(previous)

	Error("下载失败", map[string]string{"kind": "download"})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "TestGlobalLogger_ReportsCaller", entry.Function)
	assert.Equal(t, "download", entry.Context["kind"])
}

func TestLogger_RotatesBySize(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "clipper", INFO, 200, 1)
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 20; i++ {
		logger.Info(strings.Repeat("x", 50), nil)
	}

	_, err = os.Stat(filepath.Join(dir, "clipper.log"))
	assert.NoError(t, err)

	rotated, err := filepath.Glob(filepath.Join(dir, "clipper_*.log"))
	require.NoError(t, err)
	assert.Len(t, rotated, 1)
}

func TestInitGlobalLogger_FileWithMirror(t *testing.T) {
	dir := t.TempDir()
	previous := GetGlobalLogger()
	defer SetGlobalLogger(previous)

	require.NoError(t, InitGlobalLogger(LogConfig{Dir: dir, Prefix: "app", Level: "debug"}))
	Debug("hello", nil)
	require.NoError(t, GetGlobalLogger().Close())

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}
