package api

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Cokefish9527/clipper/service"
	"github.com/Cokefish9527/clipper/utils"
)

// JobRunner 执行任务并阻塞到完成
type JobRunner interface {
	Run(ctx context.Context, job service.Job) *service.Result
}

// ClipController 切片接口
type ClipController struct {
	runner      JobRunner
	downloadDir string
	baseURL     string
}

// NewClipController 创建切片控制器，baseURL 为空时按请求的 Host 拼接本地地址
func NewClipController(runner JobRunner, downloadDir, baseURL string) *ClipController {
	return &ClipController{
		runner:      runner,
		downloadDir: downloadDir,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Root 存活检查
// @Summary 存活检查
// @Tags clip
// @Produce json
// @Success 200 {object} StatusResponse
// @Router / [get]
func (cc *ClipController) Root(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "running"})
}

// Process 下载视频并切出随机片段
// @Summary 生成随机片段
// @Description 下载 file_url 指向的视频，切出若干随机短片段，配置了存储时上传并返回链接。
// @Description 请求体能解析时总是返回200，通过 status 区分成功和失败。
// @Tags clip
// @Accept json
// @Produce json
// @Param request body ProcessRequest true "切片请求"
// @Success 200 {object} ProcessResponse "处理完成，失败时为 ErrorResponse"
// @Failure 400 {object} map[string]string "请求体不是合法JSON"
// @Router /process [post]
func (cc *ClipController) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Warn("请求格式错误", map[string]string{"clientIP": c.ClientIP(), "error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result := cc.runner.Run(c.Request.Context(), service.Job{JobID: req.JobID, FileURL: req.FileURL})

	if result.Kind != service.KindCompleted {
		c.JSON(http.StatusOK, ErrorResponse{
			Status:    service.StatusError,
			Message:   result.Message(),
			JobID:     result.JobID,
			ErrorKind: string(result.Kind),
			Links:     nonNil(result.Links),
		})
		return
	}

	clips := make([]ClipResponse, 0, len(result.Clips))
	for _, clip := range result.Clips {
		resp := ClipResponse{
			Index:     clip.Index,
			Path:      clip.Path,
			URL:       cc.localURL(c, clip.Path),
			Link:      clip.Link,
			StartTime: clip.StartTime,
			EndTime:   clip.EndTime,
		}
		if clip.Thumbnail != "" {
			resp.Thumbnail = cc.localURL(c, clip.Thumbnail)
		}
		clips = append(clips, resp)
	}

	c.JSON(http.StatusOK, ProcessResponse{
		Status: service.StatusCompleted,
		JobID:  result.JobID,
		Clips:  clips,
		Links:  nonNil(result.Links),
	})
}

// localURL 下载目录下文件对应的 /downloads 静态地址，逐段转义
func (cc *ClipController) localURL(c *gin.Context, filePath string) string {
	rel, err := filepath.Rel(cc.downloadDir, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(filePath)
	}

	base := cc.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return base + "/downloads/" + strings.Join(segments, "/")
}

func nonNil(links []string) []string {
	if links == nil {
		return []string{}
	}
	return links
}
