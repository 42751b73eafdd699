package service

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ToolStatus 外部命令检测结果
type ToolStatus struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK 命令是否可用
func (t ToolStatus) OK() bool {
	return t.Error == ""
}

// RequiredTools 按配置列出依赖的外部命令及其版本参数
func RequiredTools(config *Config) map[string][]string {
	tools := map[string][]string{
		"ffmpeg":  {"ffmpeg", "-version"},
		"ffprobe": {"ffprobe", "-version"},
	}
	if config.Downloader == "ytdlp" {
		tools["yt-dlp"] = []string{config.YtDlpPath, "--version"}
	}
	return tools
}

// ValidateTools 检查 ffmpeg / ffprobe / yt-dlp 是否安装，返回每个命令的状态
func ValidateTools(ctx context.Context, config *Config) []ToolStatus {
	var statuses []ToolStatus
	for _, name := range []string{"ffmpeg", "ffprobe", "yt-dlp"} {
		args, ok := RequiredTools(config)[name]
		if !ok {
			continue
		}
		statuses = append(statuses, checkTool(ctx, name, args))
	}
	return statuses
}

func checkTool(ctx context.Context, name string, args []string) ToolStatus {
	status := ToolStatus{Name: name}

	path, err := exec.LookPath(args[0])
	if err != nil {
		status.Error = fmt.Sprintf("未找到命令 %s: %v", args[0], err)
		return status
	}
	status.Path = path

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, args[1:]...).CombinedOutput()
	if err != nil {
		status.Error = fmt.Sprintf("%s 执行失败: %v", name, err)
		return status
	}
	status.Version = firstLine(string(output))
	return status
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
