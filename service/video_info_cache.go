package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

// VideoInfo 视频信息结构
type VideoInfo struct {
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	Duration   float64   `json:"duration"`
	Codec      string    `json:"codec"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FPS        float64   `json:"fps"`
	Bitrate    int       `json:"bitrate"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// ProbeFunc 返回 ffprobe 的JSON输出
type ProbeFunc func(ctx context.Context, filePath string) (string, error)

// FFprobe 调用 ffprobe 输出JSON，ctx 取消时结束子进程。
// 参数由 ffmpeg-go 生成，与 ffmpeg_go.Probe 一致
func FFprobe(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffprobe", ffprobeArgs(filePath)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	for _, option := range ffmpeg_go.GlobalCommandOptions {
		option(cmd)
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("ffprobe %s: %w", filePath, ctxErr)
		}
		return "", fmt.Errorf("[%s] %w", strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

func ffprobeArgs(filePath string) []string {
	args := ffmpeg_go.ConvertKwargsToCmdLineArgs(ffmpeg_go.KwArgs{
		"show_format":  "",
		"show_streams": "",
		"of":           "json",
	})
	return append(args, filePath)
}

// VideoInfoCache 视频信息缓存，文件被改写（例如同一job_id重新下载）后自动失效
type VideoInfoCache struct {
	cache map[string]*VideoInfo
	mutex sync.RWMutex
	probe ProbeFunc
	ttl   time.Duration
}

// NewVideoInfoCache 创建新的视频信息缓存，probe 为空时使用 FFprobe
func NewVideoInfoCache(probe ProbeFunc) *VideoInfoCache {
	if probe == nil {
		probe = FFprobe
	}
	return &VideoInfoCache{
		cache: make(map[string]*VideoInfo),
		probe: probe,
		ttl:   time.Hour,
	}
}

// Get 获取仍然有效的视频信息
func (vic *VideoInfoCache) Get(filePath string) (*VideoInfo, bool) {
	vic.mutex.RLock()
	info, exists := vic.cache[filePath]
	vic.mutex.RUnlock()
	if !exists {
		return nil, false
	}

	if time.Since(info.AnalyzedAt) > vic.ttl {
		return nil, false
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}
	if fileInfo.ModTime().After(info.AnalyzedAt) || fileInfo.Size() != info.FileSize {
		return nil, false
	}

	return info, true
}

// Set 设置视频信息
func (vic *VideoInfoCache) Set(filePath string, info *VideoInfo) {
	vic.mutex.Lock()
	defer vic.mutex.Unlock()

	vic.cache[filePath] = info
}

// Len 缓存条目数
func (vic *VideoInfoCache) Len() int {
	vic.mutex.RLock()
	defer vic.mutex.RUnlock()
	return len(vic.cache)
}

// AnalyzeVideo 分析视频信息，命中缓存时不再调用 ffprobe
func (vic *VideoInfoCache) AnalyzeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if info, exists := vic.Get(filePath); exists {
		return info, nil
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法获取文件信息: %w", err)
	}

	output, err := vic.probe(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe执行失败: %w", err)
	}

	videoInfo, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}
	videoInfo.FileName = filePath
	videoInfo.FileSize = fileInfo.Size()
	videoInfo.AnalyzedAt = time.Now()

	vic.Set(filePath, videoInfo)
	return videoInfo, nil
}

// Duration 返回视频时长（秒）
func (vic *VideoInfoCache) Duration(ctx context.Context, filePath string) (float64, error) {
	info, err := vic.AnalyzeVideo(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// parseProbeOutput 解析 ffprobe -of json 输出，format.duration 缺失时退回到视频流时长
func parseProbeOutput(output string) (*VideoInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal([]byte(output), &probe); err != nil {
		return nil, fmt.Errorf("解析ffprobe输出失败: %w", err)
	}

	info := &VideoInfo{}
	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
		}
		info.Duration = d
	}
	if probe.Format.BitRate != "" {
		info.Bitrate, _ = strconv.Atoi(probe.Format.BitRate)
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.Codec = stream.CodecName
		info.Width = stream.Width
		info.Height = stream.Height

		var num, den int
		if _, err := fmt.Sscanf(stream.AvgFrameRate, "%d/%d", &num, &den); err == nil && den != 0 {
			info.FPS = float64(num) / float64(den)
		}
		if info.Duration == 0 && stream.Duration != "" {
			info.Duration, _ = strconv.ParseFloat(stream.Duration, 64)
		}
		break
	}

	return info, nil
}
