package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/Cokefish9527/clipper/utils"
)

// S3Uploader 上传到S3兼容存储，返回预签名下载链接
type S3Uploader struct {
	bucket   string
	prefix   string
	expiry   time.Duration
	client   *s3.S3
	uploader *s3manager.Uploader

	hasCredentials bool
}

// NewS3Uploader 创建S3上传器
func NewS3Uploader(config S3Config, expiry time.Duration) (*S3Uploader, error) {
	awsConfig := &aws.Config{}
	if config.Region != "" {
		awsConfig.Region = aws.String(config.Region)
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}
	if config.ForcePathStyle {
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if config.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKeyID, config.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("创建AWS会话失败: %w", err)
	}

	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}

	// 未显式配置时按SDK默认链（环境变量、共享凭证文件、实例角色）解析
	hasCredentials := true
	if _, err := sess.Config.Credentials.Get(); err != nil {
		hasCredentials = false
		utils.Warn("未找到S3凭证，跳过上传", map[string]string{"bucket": config.Bucket, "error": err.Error()})
	}

	return &S3Uploader{
		bucket:         config.Bucket,
		prefix:         strings.Trim(config.Prefix, "/"),
		expiry:         expiry,
		client:         s3.New(sess),
		uploader:       s3manager.NewUploader(sess),
		hasCredentials: hasCredentials,
	}, nil
}

// Available bucket 已配置且能解析到凭证
func (s *S3Uploader) Available() bool {
	return s.bucket != "" && s.hasCredentials
}

func (s *S3Uploader) objectKey(remotePath string) string {
	key := strings.TrimLeft(remotePath, "/")
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// Upload 上传文件（覆盖同名对象），返回预签名GET链接
func (s *S3Uploader) Upload(ctx context.Context, localPath, remotePath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("打开本地文件失败: %w", err)
	}
	defer file.Close()

	key := s.objectKey(remotePath)
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return "", fmt.Errorf("上传文件到S3失败: %w", err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String("attachment"),
	})
	link, err := req.Presign(s.expiry)
	if err != nil {
		return "", fmt.Errorf("生成S3预签名链接失败: %w", err)
	}
	return link, nil
}
