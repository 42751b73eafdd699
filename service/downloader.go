package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Cokefish9527/clipper/utils"
)

// Downloader 把源视频下载到本地路径
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// NewDownloader 按配置创建下载器
func NewDownloader(config *Config) Downloader {
	if config.Downloader == "http" {
		return NewHTTPDownloader(nil)
	}
	return NewYtDlpDownloader(config.YtDlpPath)
}

// YtDlpDownloader 调用本地 yt-dlp 下载，优先MP4
type YtDlpDownloader struct {
	binaryPath string
}

// NewYtDlpDownloader 创建 yt-dlp 下载器，binaryPath 为空时从PATH查找
func NewYtDlpDownloader(binaryPath string) *YtDlpDownloader {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YtDlpDownloader{binaryPath: binaryPath}
}

// Args 返回下载命令参数
func (d *YtDlpDownloader) Args(url, dest string) []string {
	return []string{
		"-f", "mp4/bestvideo[ext=mp4]+bestaudio[ext=m4a]/best",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-progress",
		"--force-overwrites",
		"-o", dest,
		url,
	}
}

// Download 下载视频到 dest
func (d *YtDlpDownloader) Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("创建下载目录失败: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.binaryPath, d.Args(url, dest)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	utils.Debug("执行yt-dlp下载命令", map[string]string{"command": strings.Join(cmd.Args, " ")})

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	if _, err := os.Stat(dest); err != nil {
		return fmt.Errorf("yt-dlp 未生成文件 %s: %w", dest, err)
	}
	return nil
}

// HTTPDownloader 直接通过HTTP下载文件URL
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader 创建HTTP下载器
func NewHTTPDownloader(client *http.Client) *HTTPDownloader {
	return &HTTPDownloader{client: client}
}

// Download 下载文件到 dest
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) error {
	return utils.DownloadFile(ctx, d.client, url, dest)
}
