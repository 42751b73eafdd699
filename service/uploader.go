package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/Cokefish9527/clipper/utils"
)

// Uploader 上传片段并返回可直接下载的链接
type Uploader interface {
	// Available 当前是否具备上传凭证，false 时静默跳过上传
	Available() bool
	// Upload 覆盖写入 remotePath，返回直接下载链接
	Upload(ctx context.Context, localPath, remotePath string) (string, error)
}

// NewUploader 按配置创建上传器；未配置或凭证缺失时返回 nil
func NewUploader(config StorageConfig) (Uploader, error) {
	expiry, err := config.LinkExpiryDuration()
	if err != nil {
		return nil, err
	}

	switch config.Provider {
	case "", "none":
		return nil, nil
	case "dropbox":
		return NewDropboxUploader(config.Dropbox), nil
	case "oss":
		if config.OSS.AccessKeyID == "" || config.OSS.AccessKeySecret == "" {
			utils.Warn("OSS凭证缺失，跳过上传", nil)
			return nil, nil
		}
		uploader, err := NewOSSUploader(config.OSS, expiry)
		if err != nil {
			return nil, err
		}
		return uploader, nil
	case "s3":
		if config.S3.Bucket == "" {
			utils.Warn("S3 bucket 未配置，跳过上传", nil)
			return nil, nil
		}
		uploader, err := NewS3Uploader(config.S3, expiry)
		if err != nil {
			return nil, err
		}
		return uploader, nil
	default:
		return nil, fmt.Errorf("未知的存储提供方: %s", config.Provider)
	}
}

// RemoteClipPath 远端路径按 job_id 命名空间划分
func RemoteClipPath(root, jobID, fileName string) string {
	return path.Join("/", root, jobID, fileName)
}

// NormalizeDirectLink 把分享链接改成直接下载：dl=0 改为 dl=1，缺失时补上 dl=1。
// 无法解析的链接按字符串替换处理
func NormalizeDirectLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.Replace(link, "dl=0", "dl=1", 1)
	}
	q := u.Query()
	q.Set("dl", "1")
	u.RawQuery = q.Encode()
	return u.String()
}
