package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	err   error
	calls int
}

func (f *fakeDownloader) Download(ctx context.Context, url, dest string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("source:"+url), 0644)
}

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) Duration(ctx context.Context, filePath string) (float64, error) {
	return f.duration, f.err
}

type fakeRenderer struct {
	failAt     int
	thumbError error
	rendered   []ClipWindow
}

func (f *fakeRenderer) Render(ctx context.Context, src string, window ClipWindow, dest string) error {
	if f.failAt >= 0 && len(f.rendered) == f.failAt {
		return errors.New("encoder exited with status 1")
	}
	f.rendered = append(f.rendered, window)
	return os.WriteFile(dest, []byte("clip"), 0644)
}

func (f *fakeRenderer) Thumbnail(ctx context.Context, src string, at float64, dest string) error {
	if f.thumbError != nil {
		return f.thumbError
	}
	return os.WriteFile(dest, []byte("jpg"), 0644)
}

type fakeUploader struct {
	mutex     sync.Mutex
	available bool
	failAt    int
	remotes   []string
}

func (f *fakeUploader) Available() bool { return f.available }

func (f *fakeUploader) Upload(ctx context.Context, localPath, remotePath string) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.failAt >= 0 && len(f.remotes) == f.failAt {
		return "", errors.New("quota exceeded")
	}
	f.remotes = append(f.remotes, remotePath)
	return "https://cdn.example.com" + remotePath + "?dl=1", nil
}

type pipelineFixture struct {
	config     *Config
	downloader *fakeDownloader
	prober     *fakeProber
	renderer   *fakeRenderer
	uploader   *fakeUploader
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	config := DefaultConfig()
	config.DownloadDir = t.TempDir()
	return &pipelineFixture{
		config:     config,
		downloader: &fakeDownloader{},
		prober:     &fakeProber{duration: 30},
		renderer:   &fakeRenderer{failAt: -1},
		uploader:   &fakeUploader{available: true, failAt: -1},
	}
}

func (f *pipelineFixture) pipeline(withUploader bool) *ClipPipeline {
	opts := []PipelineOption{
		WithDownloader(f.downloader),
		WithProber(f.prober),
		WithRenderer(f.renderer),
		WithSampler(NewClipSampler(f.config.Clip, rand.New(rand.NewSource(7)))),
	}
	if withUploader {
		opts = append(opts, WithUploader(f.uploader))
	}
	return NewClipPipeline(f.config, opts...)
}

func TestClipPipeline_CompletedWithoutUploader(t *testing.T) {
	f := newPipelineFixture(t)
	p := f.pipeline(false)

	result := p.Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})

	require.Equal(t, KindCompleted, result.Kind, result.Message())
	assert.Equal(t, StatusCompleted, result.Status())
	assert.Equal(t, "job42", result.JobID)
	assert.NotEmpty(t, result.RequestID)
	assert.Empty(t, result.Links)
	require.Len(t, result.Clips, 3)

	for i, clip := range result.Clips {
		assert.Equal(t, i, clip.Index)
		assert.Equal(t, filepath.Join(f.config.DownloadDir, "job42_clips", fmt.Sprintf("clip_%d.mp4", i)), clip.Path)
		assert.FileExists(t, clip.Path)
		assert.GreaterOrEqual(t, clip.StartTime, 0.0)
		assert.LessOrEqual(t, clip.StartTime, clip.EndTime)
		assert.LessOrEqual(t, clip.EndTime, 30.0)
		assert.Empty(t, clip.Link)
	}
	assert.FileExists(t, filepath.Join(f.config.DownloadDir, "job42.mp4"))
}

func TestClipPipeline_DefaultJobID(t *testing.T) {
	f := newPipelineFixture(t)
	result := f.pipeline(false).Process(context.Background(), Job{FileURL: "https://example.com/v.mp4"})

	require.Equal(t, KindCompleted, result.Kind)
	assert.Equal(t, "default", result.JobID)
	assert.DirExists(t, filepath.Join(f.config.DownloadDir, "default_clips"))
}

func TestClipPipeline_UploadsEveryClip(t *testing.T) {
	f := newPipelineFixture(t)
	result := f.pipeline(true).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})

	require.Equal(t, KindCompleted, result.Kind, result.Message())
	require.Len(t, result.Links, 3)
	assert.Equal(t, []string{"/job42/clip_0.mp4", "/job42/clip_1.mp4", "/job42/clip_2.mp4"}, f.uploader.remotes)
	for i, clip := range result.Clips {
		assert.Equal(t, result.Links[i], clip.Link)
	}
}

func TestClipPipeline_UnavailableUploaderSkipsUpload(t *testing.T) {
	f := newPipelineFixture(t)
	f.uploader.available = false

	result := f.pipeline(true).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})

	require.Equal(t, KindCompleted, result.Kind)
	assert.Empty(t, result.Links)
	assert.Empty(t, f.uploader.remotes)
}

func TestClipPipeline_UploadFailureKeepsPartialLinks(t *testing.T) {
	f := newPipelineFixture(t)
	f.uploader.failAt = 1

	result := f.pipeline(true).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})

	assert.Equal(t, KindUpload, result.Kind)
	assert.Equal(t, StatusError, result.Status())
	assert.Contains(t, result.Message(), "quota exceeded")
	assert.Equal(t, []string{"https://cdn.example.com/job42/clip_0.mp4?dl=1"}, result.Links)
}

func TestClipPipeline_DownloadFailureCreatesNoClips(t *testing.T) {
	f := newPipelineFixture(t)
	f.downloader.err = errors.New("HTTP Error 404: Not Found")

	result := f.pipeline(true).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/missing"})

	assert.Equal(t, KindDownload, result.Kind)
	assert.Contains(t, result.Message(), "404")
	assert.Empty(t, result.Clips)
	assert.Empty(t, result.Links)
	assert.NoDirExists(t, filepath.Join(f.config.DownloadDir, "job42_clips"))
	assert.Empty(t, f.uploader.remotes)
}

func TestClipPipeline_ProbeFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.prober.err = errors.New("moov atom not found")

	result := f.pipeline(false).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})
	assert.Equal(t, KindProbe, result.Kind)
	assert.Empty(t, f.renderer.rendered)
}

func TestClipPipeline_ZeroDurationIsProbeError(t *testing.T) {
	f := newPipelineFixture(t)
	f.prober.duration = 0

	result := f.pipeline(false).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})
	assert.Equal(t, KindProbe, result.Kind)
}

func TestClipPipeline_EncodeFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.renderer.failAt = 1

	result := f.pipeline(true).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})
	assert.Equal(t, KindEncode, result.Kind)
	assert.Len(t, result.Clips, 1)
	assert.Empty(t, f.uploader.remotes)
}

func TestClipPipeline_InvalidJobs(t *testing.T) {
	f := newPipelineFixture(t)
	p := f.pipeline(false)

	for _, job := range []Job{
		{JobID: "job42", FileURL: ""},
		{JobID: "job42", FileURL: "   "},
		{JobID: "../etc", FileURL: "https://example.com/v.mp4"},
		{JobID: "a/b", FileURL: "https://example.com/v.mp4"},
	} {
		result := p.Process(context.Background(), job)
		assert.Equal(t, KindInvalid, result.Kind, "job=%+v", job)
	}
	assert.Equal(t, 0, f.downloader.calls)
}

func TestClipPipeline_ResubmitOverwrites(t *testing.T) {
	f := newPipelineFixture(t)
	p := f.pipeline(false)

	first := p.Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/a.mp4"})
	second := p.Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/b.mp4"})

	require.Equal(t, KindCompleted, first.Kind)
	require.Equal(t, KindCompleted, second.Kind)

	data, err := os.ReadFile(filepath.Join(f.config.DownloadDir, "job42.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "source:https://example.com/b.mp4", string(data))
}

func TestClipPipeline_Thumbnails(t *testing.T) {
	f := newPipelineFixture(t)
	f.config.Clip.Thumbnails = true

	result := f.pipeline(false).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4"})
	require.Equal(t, KindCompleted, result.Kind)
	for i, clip := range result.Clips {
		assert.Equal(t, filepath.Join(f.config.DownloadDir, "job42_clips", fmt.Sprintf("clip_%d.jpg", i)), clip.Thumbnail)
		assert.FileExists(t, clip.Thumbnail)
	}

	// 缩略图失败不影响结果
	f.renderer.thumbError = errors.New("no frame")
	result = f.pipeline(false).Process(context.Background(), Job{JobID: "job43", FileURL: "https://example.com/v.mp4"})
	require.Equal(t, KindCompleted, result.Kind)
	assert.Empty(t, result.Clips[0].Thumbnail)
}

func TestClipPipeline_UsesGivenRequestID(t *testing.T) {
	f := newPipelineFixture(t)
	result := f.pipeline(false).Process(context.Background(), Job{JobID: "job42", FileURL: "https://example.com/v.mp4", RequestID: "req-1"})
	assert.Equal(t, "req-1", result.RequestID)
}
