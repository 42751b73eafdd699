package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSUploader 基于阿里云OSS的上传实现
type OSSUploader struct {
	bucket *oss.Bucket
	prefix string
	expiry time.Duration
}

// NewOSSUploader 创建OSS上传器
func NewOSSUploader(config OSSConfig, expiry time.Duration) (*OSSUploader, error) {
	if config.Endpoint == "" || config.BucketName == "" {
		return nil, fmt.Errorf("OSS配置不完整: endpoint 和 bucketName 必填")
	}

	client, err := oss.New(config.Endpoint, config.AccessKeyID, config.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("创建OSS客户端失败: %w", err)
	}

	bucket, err := client.Bucket(config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("获取OSS存储空间失败: %w", err)
	}

	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}

	return &OSSUploader{
		bucket: bucket,
		prefix: strings.Trim(config.Prefix, "/"),
		expiry: expiry,
	}, nil
}

// Available 凭证在构造时校验
func (o *OSSUploader) Available() bool {
	return o.bucket != nil
}

// objectKey OSS对象名不以 / 开头
func (o *OSSUploader) objectKey(remotePath string) string {
	key := strings.TrimLeft(remotePath, "/")
	if o.prefix != "" {
		key = o.prefix + "/" + key
	}
	return key
}

// Upload 上传文件（同名对象直接覆盖），返回带 attachment 下载头的签名URL
func (o *OSSUploader) Upload(ctx context.Context, localPath, remotePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := o.objectKey(remotePath)
	if err := o.bucket.PutObjectFromFile(key, localPath); err != nil {
		return "", fmt.Errorf("上传文件到OSS失败: %w", err)
	}

	signed, err := o.bucket.SignURL(key, oss.HTTPGet, int64(o.expiry.Seconds()),
		oss.ResponseContentDisposition("attachment"))
	if err != nil {
		return "", fmt.Errorf("生成OSS签名链接失败: %w", err)
	}
	return signed, nil
}
