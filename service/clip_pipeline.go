package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Cokefish9527/clipper/utils"
)

// DurationProber 查询视频时长（秒）
type DurationProber interface {
	Duration(ctx context.Context, filePath string) (float64, error)
}

// ClipPipeline 顺序执行 下载 -> 时长 -> 采样 -> 渲染 -> 上传
type ClipPipeline struct {
	downloadDir  string
	defaultJobID string
	clipCount    int
	thumbnails   bool
	uploadRoot   string

	downloader Downloader
	prober     DurationProber
	sampler    *ClipSampler
	renderer   ClipRenderer
	uploader   Uploader
}

// PipelineOption 替换流水线依赖，主要用于测试
type PipelineOption func(*ClipPipeline)

// WithDownloader 替换下载器
func WithDownloader(d Downloader) PipelineOption {
	return func(p *ClipPipeline) { p.downloader = d }
}

// WithProber 替换时长查询
func WithProber(pr DurationProber) PipelineOption {
	return func(p *ClipPipeline) { p.prober = pr }
}

// WithSampler 替换采样器
func WithSampler(s *ClipSampler) PipelineOption {
	return func(p *ClipPipeline) { p.sampler = s }
}

// WithRenderer 替换渲染器
func WithRenderer(r ClipRenderer) PipelineOption {
	return func(p *ClipPipeline) { p.renderer = r }
}

// WithUploader 替换上传器，nil 表示不上传
func WithUploader(u Uploader) PipelineOption {
	return func(p *ClipPipeline) { p.uploader = u }
}

// NewClipPipeline 按配置创建流水线，上传器需显式传入
func NewClipPipeline(config *Config, opts ...PipelineOption) *ClipPipeline {
	p := &ClipPipeline{
		downloadDir:  config.DownloadDir,
		defaultJobID: config.DefaultJobID,
		clipCount:    config.Clip.Count,
		thumbnails:   config.Clip.Thumbnails,
		uploadRoot:   config.Storage.Dropbox.RootPath,
		downloader:   NewDownloader(config),
		prober:       NewVideoInfoCache(nil),
		sampler:      NewClipSampler(config.Clip, nil),
		renderer:     NewFFmpegRenderer(config.Clip),
	}
	if config.Storage.Provider != "dropbox" {
		p.uploadRoot = ""
	}
	if p.defaultJobID == "" {
		p.defaultJobID = "default"
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SourcePath 源视频路径 downloads/{job_id}.mp4
func (p *ClipPipeline) SourcePath(jobID string) string {
	return filepath.Join(p.downloadDir, jobID+".mp4")
}

// ClipDir 片段目录 downloads/{job_id}_clips
func (p *ClipPipeline) ClipDir(jobID string) string {
	return filepath.Join(p.downloadDir, jobID+"_clips")
}

// validJobID job_id 会拼进文件路径，不允许路径分隔符和 ..
func validJobID(jobID string) error {
	if strings.ContainsAny(jobID, `/\`) || strings.Contains(jobID, "..") {
		return errors.Errorf("job_id 含有非法字符: %q", jobID)
	}
	return nil
}

// Process 执行一个任务。任何一步失败都会立即返回对应分类的结果，
// 同一 job_id 重复执行会覆盖之前的文件
func (p *ClipPipeline) Process(ctx context.Context, job Job) *Result {
	if job.JobID == "" {
		job.JobID = p.defaultJobID
	}
	if job.RequestID == "" {
		job.RequestID = uuid.New().String()
	}
	result := newResult(job.RequestID, job.JobID)
	logCtx := map[string]string{"requestId": result.RequestID, "jobId": job.JobID}

	utils.Info("收到任务", map[string]string{"requestId": result.RequestID, "jobId": job.JobID, "fileUrl": job.FileURL})

	if err := validJobID(job.JobID); err != nil {
		return p.failed(result, KindInvalid, err, logCtx)
	}
	if strings.TrimSpace(job.FileURL) == "" {
		return p.failed(result, KindInvalid, errors.New("file_url 不能为空"), logCtx)
	}

	source := p.SourcePath(job.JobID)
	result.SourcePath = source
	if err := p.downloader.Download(ctx, job.FileURL, source); err != nil {
		return p.failed(result, KindDownload, errors.Wrap(err, "下载源视频失败"), logCtx)
	}
	utils.Info("源视频下载完成", map[string]string{"requestId": result.RequestID, "source": source})

	duration, err := p.prober.Duration(ctx, source)
	if err != nil {
		return p.failed(result, KindProbe, errors.Wrap(err, "读取视频时长失败"), logCtx)
	}
	result.Duration = duration

	windows, err := p.sampler.Sample(duration, p.clipCount)
	if err != nil {
		return p.failed(result, KindProbe, err, logCtx)
	}

	clipDir := p.ClipDir(job.JobID)
	if err := os.MkdirAll(clipDir, 0755); err != nil {
		return p.failed(result, KindEncode, errors.Wrap(err, "创建片段目录失败"), logCtx)
	}

	for i, window := range windows {
		clip := Clip{
			Index:     i,
			Path:      filepath.Join(clipDir, fmt.Sprintf("clip_%d.mp4", i)),
			StartTime: window.Start,
			EndTime:   window.End,
		}
		if err := p.renderer.Render(ctx, source, window, clip.Path); err != nil {
			return p.failed(result, KindEncode, errors.Wrapf(err, "渲染片段 %d 失败", i), logCtx)
		}
		p.thumbnail(ctx, source, window, &clip, logCtx)
		result.Clips = append(result.Clips, clip)

		utils.Debug("片段渲染完成", map[string]string{
			"requestId": result.RequestID,
			"clip":      clip.Path,
			"start":     formatSeconds(window.Start),
			"end":       formatSeconds(window.End),
		})
	}

	if p.uploader == nil || !p.uploader.Available() {
		utils.Info("未配置上传凭证，跳过上传", logCtx)
		return p.completed(result, logCtx)
	}

	for i := range result.Clips {
		clip := &result.Clips[i]
		remote := RemoteClipPath(p.uploadRoot, job.JobID, filepath.Base(clip.Path))
		link, err := p.uploader.Upload(ctx, clip.Path, remote)
		if err != nil {
			return p.failed(result, KindUpload, errors.Wrapf(err, "上传片段 %d 失败", i), logCtx)
		}
		clip.Link = link
		result.Links = append(result.Links, link)
	}

	return p.completed(result, logCtx)
}

// thumbnail 缩略图失败只记录警告，不影响任务结果
func (p *ClipPipeline) thumbnail(ctx context.Context, source string, window ClipWindow, clip *Clip, logCtx map[string]string) {
	if !p.thumbnails {
		return
	}
	thumbnailer, ok := p.renderer.(Thumbnailer)
	if !ok {
		return
	}
	dest := strings.TrimSuffix(clip.Path, filepath.Ext(clip.Path)) + ".jpg"
	if err := thumbnailer.Thumbnail(ctx, source, window.Start+window.Length()/2, dest); err != nil {
		utils.Warn("生成缩略图失败", map[string]string{
			"requestId": logCtx["requestId"],
			"clip":      clip.Path,
			"error":     err.Error(),
		})
		return
	}
	clip.Thumbnail = dest
}

func (p *ClipPipeline) failed(result *Result, kind ResultKind, err error, logCtx map[string]string) *Result {
	utils.Error("任务失败", map[string]string{
		"requestId": logCtx["requestId"],
		"jobId":     logCtx["jobId"],
		"kind":      string(kind),
		"error":     err.Error(),
		"links":     fmt.Sprintf("%d", len(result.Links)),
	})
	return result.fail(kind, err)
}

func (p *ClipPipeline) completed(result *Result, logCtx map[string]string) *Result {
	result.complete()
	utils.Info("任务完成", map[string]string{
		"requestId": logCtx["requestId"],
		"jobId":     logCtx["jobId"],
		"clips":     fmt.Sprintf("%d", len(result.Clips)),
		"links":     fmt.Sprintf("%d", len(result.Links)),
		"elapsed":   result.Finished.Sub(result.Started).String(),
	})
	return result
}
