package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

func TestNewFFmpegRenderer_Defaults(t *testing.T) {
	r := NewFFmpegRenderer(ClipConfig{})
	assert.Equal(t, "libx264", r.VideoCodec)
	assert.Equal(t, "aac", r.AudioCodec)
	assert.Equal(t, 320, r.ThumbnailWidth)
}

func TestFFmpegRenderer_Args(t *testing.T) {
	r := NewFFmpegRenderer(DefaultConfig().Clip)
	args := r.Args("downloads/job42.mp4", ClipWindow{Start: 1.5, End: 4.25}, "downloads/job42_clips/clip_0.mp4")

	assert.Subset(t, args, []string{
		"-ss", "1.500",
		"-i", "downloads/job42.mp4",
		"-t", "2.750",
		"-c:v", "libx264",
		"-c:a", "aac",
		"downloads/job42_clips/clip_0.mp4",
		"-y",
	})
}

func TestFFmpegRenderer_CompiledCommandOverwrites(t *testing.T) {
	r := NewFFmpegRenderer(DefaultConfig().Clip)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stderr bytes.Buffer
	cmd := r.stream(ctx, "downloads/job42.mp4", ClipWindow{Start: 0, End: 2}, "downloads/job42_clips/clip_0.mp4").
		WithErrorOutput(&stderr).
		Compile()

	assert.Contains(t, cmd.Args, "-y")
	assert.Equal(t, "downloads/job42_clips/clip_0.mp4", cmd.Args[len(cmd.Args)-2])
	assert.Same(t, &stderr, cmd.Stderr)
}

func TestNewFFmpegRenderer_DisablesLibraryCommandLog(t *testing.T) {
	ffmpeg_go.LogCompiledCommand = true
	NewFFmpegRenderer(ClipConfig{})
	assert.False(t, ffmpeg_go.LogCompiledCommand)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0.000", formatSeconds(0))
	assert.Equal(t, "12.346", formatSeconds(12.3456))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("  abc\n", 10))
	assert.Equal(t, "cde", tail("abcde", 3))
}
