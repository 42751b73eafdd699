package service

import (
	"time"
)

// ResultKind 任务结果分类
type ResultKind string

const (
	KindCompleted ResultKind = "completed"
	KindInvalid   ResultKind = "invalid"
	KindDownload  ResultKind = "download"
	KindProbe     ResultKind = "probe"
	KindEncode    ResultKind = "encode"
	KindUpload    ResultKind = "upload"
	KindBusy      ResultKind = "busy"
	KindCanceled  ResultKind = "canceled"
	KindInternal  ResultKind = "internal"
)

const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Job 一次请求对应的任务
type Job struct {
	JobID     string `json:"job_id"`
	FileURL   string `json:"file_url"`
	RequestID string `json:"-"` // 为空时由流水线生成
}

// Clip 渲染完成的片段
type Clip struct {
	Index     int     `json:"index"`
	Path      string  `json:"path"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Link      string  `json:"link,omitempty"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Result 任务结果。Kind 为 KindCompleted 时 Err 为空；
// KindUpload 时 Links 保留失败前已上传成功的链接
type Result struct {
	RequestID  string     `json:"request_id"`
	JobID      string     `json:"job_id"`
	Kind       ResultKind `json:"kind"`
	Err        error      `json:"-"`
	SourcePath string     `json:"source_path,omitempty"`
	Duration   float64    `json:"duration,omitempty"`
	Clips      []Clip     `json:"clips"`
	Links      []string   `json:"links"`
	Started    time.Time  `json:"started"`
	Finished   time.Time  `json:"finished"`
}

// Status 返回 completed 或 error
func (r *Result) Status() string {
	if r.Kind == KindCompleted {
		return StatusCompleted
	}
	return StatusError
}

// Message 错误信息，成功时为空
func (r *Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func newResult(requestID, jobID string) *Result {
	return &Result{
		RequestID: requestID,
		JobID:     jobID,
		Clips:     []Clip{},
		Links:     []string{},
		Started:   time.Now(),
	}
}

func (r *Result) fail(kind ResultKind, err error) *Result {
	r.Kind = kind
	r.Err = err
	r.Finished = time.Now()
	return r
}

func (r *Result) complete() *Result {
	r.Kind = KindCompleted
	r.Finished = time.Now()
	return r
}
