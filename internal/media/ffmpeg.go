package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// FFmpeg captures a single frame with the ffmpeg binary.
type FFmpeg struct {
	Path   string
	Offset time.Duration
	Width  int
	Height int
}

// Args returns the ffmpeg command line for src and dst.
func (f FFmpeg) Args(src, dst string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", strconv.FormatFloat(f.Offset.Seconds(), 'f', -1, 64),
		"-i", src,
		"-frames:v", "1",
	}
	if f.Width > 0 && f.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", f.Width, f.Height))
	}
	return append(args, dst)
}

// ExtractFrame runs ffmpeg. A zero exit without an output file is also an
// error, which happens when the video is shorter than Offset.
func (f FFmpeg) ExtractFrame(ctx context.Context, src, dst string) error {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, f.Args(src, dst)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ProcessingError{Op: "ffmpeg", Err: err, Output: stderr.String()}
	}
	info, err := os.Stat(dst)
	if err != nil || info.Size() == 0 {
		return &ProcessingError{Op: "ffmpeg", Err: errors.New("no frame was written"), Output: stderr.String()}
	}
	return nil
}
