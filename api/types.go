package api

// ProcessRequest 切片请求
type ProcessRequest struct {
	JobID   string `json:"job_id"`   // 可选，默认 "default"
	FileURL string `json:"file_url"` // 源视频地址
}

// ClipResponse 单个片段
type ClipResponse struct {
	Index     int     `json:"index"`
	Path      string  `json:"path"`
	URL       string  `json:"url"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Link      string  `json:"link,omitempty"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// ProcessResponse 处理成功响应
type ProcessResponse struct {
	Status string         `json:"status"`
	JobID  string         `json:"job_id"`
	Clips  []ClipResponse `json:"clips"`
	Links  []string       `json:"links"`
}

// ErrorResponse 处理失败响应，links 为失败前已上传的链接
type ErrorResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	JobID     string   `json:"job_id"`
	ErrorKind string   `json:"error_kind"`
	Links     []string `json:"links"`
}

// StatusResponse 存活检查响应
type StatusResponse struct {
	Status string `json:"status"`
}
