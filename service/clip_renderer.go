package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"

	"github.com/Cokefish9527/clipper/utils"
)

// ClipRenderer 把源视频的一个区间渲染成独立文件
type ClipRenderer interface {
	Render(ctx context.Context, src string, window ClipWindow, dest string) error
}

// Thumbnailer 为片段生成缩略图，可选能力
type Thumbnailer interface {
	Thumbnail(ctx context.Context, src string, at float64, dest string) error
}

// FFmpegRenderer 基于 ffmpeg-go 的渲染器，编码参数固定
type FFmpegRenderer struct {
	VideoCodec     string
	AudioCodec     string
	ThumbnailWidth int
}

// NewFFmpegRenderer 创建渲染器。ffmpeg-go 自带的命令打印关闭，命令改由 utils 日志输出
func NewFFmpegRenderer(cfg ClipConfig) *FFmpegRenderer {
	ffmpeg_go.LogCompiledCommand = false

	r := &FFmpegRenderer{
		VideoCodec:     cfg.VideoCodec,
		AudioCodec:     cfg.AudioCodec,
		ThumbnailWidth: cfg.ThumbnailWidth,
	}
	if r.VideoCodec == "" {
		r.VideoCodec = "libx264"
	}
	if r.AudioCodec == "" {
		r.AudioCodec = "aac"
	}
	if r.ThumbnailWidth <= 0 {
		r.ThumbnailWidth = 320
	}
	return r
}

// stream 构造渲染命令，输入端 -ss 快速定位，输出端 -t 控制长度。
// ffmpeg-go 把 -y 标记存放在 Context 中，必须先设置 ctx 再调用 OverWriteOutput
func (r *FFmpegRenderer) stream(ctx context.Context, src string, window ClipWindow, dest string) *ffmpeg_go.Stream {
	stream := ffmpeg_go.Input(src, ffmpeg_go.KwArgs{"ss": formatSeconds(window.Start)}).
		Output(dest, ffmpeg_go.KwArgs{
			"t":   formatSeconds(window.Length()),
			"c:v": r.VideoCodec,
			"c:a": r.AudioCodec,
		})
	stream.Context = ctx
	return stream.OverWriteOutput()
}

// Args 返回渲染命令参数，便于日志和测试
func (r *FFmpegRenderer) Args(src string, window ClipWindow, dest string) []string {
	return r.stream(context.Background(), src, window, dest).GetArgs()
}

// Render 渲染片段，ffmpeg 的输出只在失败时出现在错误信息里
func (r *FFmpegRenderer) Render(ctx context.Context, src string, window ClipWindow, dest string) error {
	var stderr bytes.Buffer
	stream := r.stream(ctx, src, window, dest)

	utils.Debug("执行ffmpeg渲染命令", map[string]string{"command": "ffmpeg " + strings.Join(stream.GetArgs(), " ")})

	if err := stream.WithErrorOutput(&stderr).Run(); err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", err, tail(stderr.String(), 2000))
	}
	return nil
}

// Thumbnail 截取 at 处的一帧，按宽度等比缩放后保存为jpg
func (r *FFmpegRenderer) Thumbnail(ctx context.Context, src string, at float64, dest string) error {
	var frame, stderr bytes.Buffer
	stream := ffmpeg_go.Input(src, ffmpeg_go.KwArgs{"ss": formatSeconds(at)}).
		Output("pipe:", ffmpeg_go.KwArgs{"vframes": 1, "format": "image2", "vcodec": "mjpeg"})
	stream.Context = ctx

	utils.Debug("执行ffmpeg截帧命令", map[string]string{"command": "ffmpeg " + strings.Join(stream.GetArgs(), " ")})

	if err := stream.WithOutput(&frame).WithErrorOutput(&stderr).Run(); err != nil {
		return fmt.Errorf("ffmpeg grab frame: %w\n%s", err, tail(stderr.String(), 2000))
	}

	img, err := imaging.Decode(&frame)
	if err != nil {
		return fmt.Errorf("解码缩略图失败: %w", err)
	}
	thumb := imaging.Resize(img, r.ThumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, dest, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("保存缩略图失败: %w", err)
	}
	return nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
