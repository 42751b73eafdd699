package service

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Cokefish9527/clipper/utils"
)

// DefaultConfigPath 默认配置文件路径
const DefaultConfigPath = "config/config.json"

// Config 服务配置
type Config struct {
	Addr         string          `json:"addr"`
	BaseURL      string          `json:"baseUrl"` // 生成本地链接用，为空时按请求Host推导
	DownloadDir  string          `json:"downloadDir"`
	DefaultJobID string          `json:"defaultJobId"`
	Downloader   string          `json:"downloader"` // ytdlp | http
	YtDlpPath    string          `json:"ytDlpPath"`
	Workers      int             `json:"workers"`
	QueueSize    int             `json:"queueSize"`
	JobTimeout   string          `json:"jobTimeout"`
	JobHistory   int             `json:"jobHistory"`
	Clip         ClipConfig      `json:"clip"`
	Storage      StorageConfig   `json:"storage"`
	Log          utils.LogConfig `json:"log"`
}

// ClipConfig 片段抽取参数
type ClipConfig struct {
	Count          int     `json:"count"`
	Margin         float64 `json:"margin"`
	MinLength      float64 `json:"minLength"`
	MaxLength      float64 `json:"maxLength"`
	VideoCodec     string  `json:"videoCodec"`
	AudioCodec     string  `json:"audioCodec"`
	Thumbnails     bool    `json:"thumbnails"`
	ThumbnailWidth int     `json:"thumbnailWidth"`
}

// StorageConfig 云存储配置，Provider 为空表示不上传
type StorageConfig struct {
	Provider   string        `json:"provider"` // dropbox | oss | s3 | none
	LinkExpiry string        `json:"linkExpiry"`
	Dropbox    DropboxConfig `json:"dropbox"`
	OSS        OSSConfig     `json:"oss"`
	S3         S3Config      `json:"s3"`
}

// DropboxConfig Dropbox配置，token 每次上传时从环境变量读取
type DropboxConfig struct {
	TokenEnv string `json:"tokenEnv"`
	RootPath string `json:"rootPath"`
}

// OSSConfig OSS配置信息
type OSSConfig struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	BucketName      string `json:"bucketName"`
	Prefix          string `json:"prefix"`
}

// S3Config S3配置信息，AccessKeyID 为空时使用SDK默认凭证链
type S3Config struct {
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Prefix          string `json:"prefix"`
	ForcePathStyle  bool   `json:"forcePathStyle"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8000",
		DownloadDir:  "downloads",
		DefaultJobID: "default",
		Downloader:   "ytdlp",
		YtDlpPath:    "yt-dlp",
		Workers:      2,
		QueueSize:    16,
		JobTimeout:   "10m",
		JobHistory:   200,
		Clip: ClipConfig{
			Count:          3,
			Margin:         5,
			MinLength:      2,
			MaxLength:      4,
			VideoCodec:     "libx264",
			AudioCodec:     "aac",
			ThumbnailWidth: 320,
		},
		Storage: StorageConfig{
			Provider:   "dropbox",
			LinkExpiry: "168h",
			Dropbox: DropboxConfig{
				TokenEnv: "DROPBOX_ACCESS_TOKEN",
				RootPath: "/",
			},
		},
		Log: utils.LogConfig{
			Level:    "INFO",
			Prefix:   "clipper",
			MaxSize:  10 * 1024 * 1024,
			MaxFiles: 10,
			Stdout:   true,
		},
	}
}

// LoadConfig 从配置文件加载配置；文件不存在时使用默认配置，随后应用环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		utils.Info("配置文件不存在，使用默认配置", map[string]string{"path": path})
	case err != nil:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv 环境变量覆盖配置文件
func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("CLIPPER_ADDR", &c.Addr)
	setString("CLIPPER_BASE_URL", &c.BaseURL)
	setString("CLIPPER_DOWNLOAD_DIR", &c.DownloadDir)
	setString("CLIPPER_DOWNLOADER", &c.Downloader)
	setString("CLIPPER_JOB_TIMEOUT", &c.JobTimeout)
	setString("CLIPPER_LOG_LEVEL", &c.Log.Level)
	setString("CLIPPER_LOG_DIR", &c.Log.Dir)
	setInt("CLIPPER_WORKERS", &c.Workers)
	setInt("CLIPPER_QUEUE_SIZE", &c.QueueSize)
	setInt("CLIPPER_CLIP_COUNT", &c.Clip.Count)

	setString("CLIPPER_STORAGE_PROVIDER", &c.Storage.Provider)
	setString("OSS_ENDPOINT", &c.Storage.OSS.Endpoint)
	setString("OSS_ACCESS_KEY_ID", &c.Storage.OSS.AccessKeyID)
	setString("OSS_ACCESS_KEY_SECRET", &c.Storage.OSS.AccessKeySecret)
	setString("OSS_BUCKET", &c.Storage.OSS.BucketName)
	setString("S3_BUCKET", &c.Storage.S3.Bucket)
	setString("AWS_REGION", &c.Storage.S3.Region)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.DownloadDir == "" {
		return fmt.Errorf("downloadDir 不能为空")
	}
	if c.Clip.Count < 1 {
		return fmt.Errorf("clip.count 必须大于0: %d", c.Clip.Count)
	}
	if c.Clip.MinLength <= 0 || c.Clip.MaxLength < c.Clip.MinLength {
		return fmt.Errorf("clip 长度范围无效: [%v, %v]", c.Clip.MinLength, c.Clip.MaxLength)
	}
	if c.Clip.Margin < 0 {
		return fmt.Errorf("clip.margin 不能为负数: %v", c.Clip.Margin)
	}
	switch c.Downloader {
	case "ytdlp", "http":
	default:
		return fmt.Errorf("未知的下载器: %s", c.Downloader)
	}
	switch c.Storage.Provider {
	case "", "none", "dropbox", "oss", "s3":
	default:
		return fmt.Errorf("未知的存储提供方: %s", c.Storage.Provider)
	}
	if _, err := c.JobTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Storage.LinkExpiryDuration(); err != nil {
		return err
	}
	return nil
}

// JobTimeoutDuration 单个任务的超时时间，空字符串或0表示不限制
func (c *Config) JobTimeoutDuration() (time.Duration, error) {
	return parseDuration("jobTimeout", c.JobTimeout)
}

// LinkExpiryDuration 签名链接有效期
func (s *StorageConfig) LinkExpiryDuration() (time.Duration, error) {
	return parseDuration("storage.linkExpiry", s.LinkExpiry)
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s 格式错误: %w", name, err)
	}
	return d, nil
}
