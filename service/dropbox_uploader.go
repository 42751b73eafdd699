package service

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"
)

// dropboxAPI Dropbox SDK 中用到的调用，测试时可替换
type dropboxAPI interface {
	Upload(path string, content []byte) error
	ExistingLink(path string) (string, error)
	CreateLink(path string) (string, error)
}

// DropboxUploader 上传到Dropbox，token 每次上传时从环境变量读取
type DropboxUploader struct {
	tokenEnv  string
	newClient func(token string) dropboxAPI
}

// NewDropboxUploader 创建Dropbox上传器
func NewDropboxUploader(config DropboxConfig) *DropboxUploader {
	tokenEnv := config.TokenEnv
	if tokenEnv == "" {
		tokenEnv = "DROPBOX_ACCESS_TOKEN"
	}
	return &DropboxUploader{
		tokenEnv:  tokenEnv,
		newClient: newDropboxSDK,
	}
}

func (d *DropboxUploader) token() string {
	return os.Getenv(d.tokenEnv)
}

// Available token 存在时可用
func (d *DropboxUploader) Available() bool {
	return d.token() != ""
}

// Upload 读取整个文件后覆盖上传，复用已有分享链接或新建一个，返回 dl=1 的链接
func (d *DropboxUploader) Upload(ctx context.Context, localPath, remotePath string) (string, error) {
	token := d.token()
	if token == "" {
		return "", fmt.Errorf("dropbox token 未设置: %s", d.tokenEnv)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("读取待上传文件失败: %w", err)
	}

	client := d.newClient(token)
	if err := client.Upload(remotePath, content); err != nil {
		return "", fmt.Errorf("dropbox upload %s: %w", remotePath, err)
	}

	link, err := client.ExistingLink(remotePath)
	if err != nil {
		return "", fmt.Errorf("dropbox list shared links %s: %w", remotePath, err)
	}
	if link == "" {
		link, err = client.CreateLink(remotePath)
		if err != nil {
			return "", fmt.Errorf("dropbox create shared link %s: %w", remotePath, err)
		}
	}

	return NormalizeDirectLink(link), nil
}

type dropboxSDK struct {
	files   files.Client
	sharing sharing.Client
}

func newDropboxSDK(token string) dropboxAPI {
	config := dropbox.Config{Token: token, LogLevel: dropbox.LogOff}
	return &dropboxSDK{
		files:   files.New(config),
		sharing: sharing.New(config),
	}
}

func (s *dropboxSDK) Upload(path string, content []byte) error {
	arg := files.NewUploadArg(path)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
	_, err := s.files.Upload(arg, bytes.NewReader(content))
	return err
}

func (s *dropboxSDK) ExistingLink(path string) (string, error) {
	arg := sharing.NewListSharedLinksArg()
	arg.Path = path
	arg.DirectOnly = true
	res, err := s.sharing.ListSharedLinks(arg)
	if err != nil {
		return "", err
	}
	for _, link := range res.Links {
		if u := sharedLinkURL(link); u != "" {
			return u, nil
		}
	}
	return "", nil
}

func (s *dropboxSDK) CreateLink(path string) (string, error) {
	res, err := s.sharing.CreateSharedLinkWithSettings(sharing.NewCreateSharedLinkWithSettingsArg(path))
	if err != nil {
		return "", err
	}
	return sharedLinkURL(res), nil
}

func sharedLinkURL(link sharing.IsSharedLinkMetadata) string {
	switch l := link.(type) {
	case *sharing.FileLinkMetadata:
		return l.Url
	case *sharing.FolderLinkMetadata:
		return l.Url
	case *sharing.SharedLinkMetadata:
		return l.Url
	}
	return ""
}
