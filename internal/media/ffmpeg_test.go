package media

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFmpegArgs(t *testing.T) {
	f := FFmpeg{Offset: time.Second, Width: 640, Height: 360}
	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", "1",
		"-i", "in.mp4",
		"-frames:v", "1",
		"-vf", "scale=640:360",
		"out.jpg",
	}, f.Args("in.mp4", "out.jpg"))

	f = FFmpeg{Offset: 1500 * time.Millisecond}
	args := f.Args("in.mov", "out.jpg")
	assert.Contains(t, args, "1.5")
	assert.NotContains(t, args, "-vf")
}

// fakeFFmpeg writes a shell script standing in for the ffmpeg binary.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not available")
	}
	p := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

func TestExtractFrameReportsStderr(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "in.mp4: moov atom not found" >&2; exit 1`)
	err := FFmpeg{Path: bin, Offset: time.Second}.ExtractFrame(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.jpg"))

	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "in.mp4: moov atom not found\n", perr.Output)
}

func TestExtractFrameWithoutOutputFails(t *testing.T) {
	bin := fakeFFmpeg(t, `exit 0`)
	err := FFmpeg{Path: bin}.ExtractFrame(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.jpg"))

	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "no frame")
}

func TestExtractFrameWritesOutput(t *testing.T) {
	bin := fakeFFmpeg(t, `for last; do :; done; printf jpeg > "$last"`)
	out := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, FFmpeg{Path: bin}.ExtractFrame(context.Background(), "in.mp4", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestExtractFrameMissingBinary(t *testing.T) {
	err := FFmpeg{Path: filepath.Join(t.TempDir(), "missing")}.ExtractFrame(context.Background(), "in.mp4", "out.jpg")
	var perr *ProcessingError
	assert.ErrorAs(t, err, &perr)
}
