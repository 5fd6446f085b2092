// Package attachment downloads submitted files into scratch space.
package attachment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

var (
	// ErrTooLarge means the payload exceeded the byte limit while downloading.
	ErrTooLarge = errors.New("attachment exceeds size limit")
	// ErrEmpty means the payload had no bytes.
	ErrEmpty = errors.New("attachment payload is empty")
)

// Spooled is a payload written to disk.
type Spooled struct {
	Path   string
	Size   int64
	SHA256 string
}

// Fetch issues a GET for rawURL and returns the body on a 2xx response.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("attachment url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download attachment: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// Spool copies reader to path, failing once more than maxBytes are read.
// The file is removed on failure.
func Spool(reader io.Reader, path string, maxBytes int64) (Spooled, error) {
	if reader == nil {
		return Spooled{}, errors.New("reader is required")
	}
	if maxBytes <= 0 {
		return Spooled{}, errors.New("max bytes must be greater than 0")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return Spooled{}, fmt.Errorf("create spool file: %w", err)
	}
	keep := false
	defer func() {
		_ = f.Close()
		if !keep {
			_ = os.Remove(path)
		}
	}()

	hasher := sha256.New()
	limited := &io.LimitedReader{R: reader, N: maxBytes + 1}
	written, err := io.Copy(io.MultiWriter(f, hasher), limited)
	if err != nil {
		return Spooled{}, fmt.Errorf("copy to spool file: %w", err)
	}
	if written > maxBytes {
		return Spooled{}, fmt.Errorf("%w: max %d bytes", ErrTooLarge, maxBytes)
	}
	if written == 0 {
		return Spooled{}, ErrEmpty
	}
	if err := f.Sync(); err != nil {
		return Spooled{}, fmt.Errorf("sync spool file: %w", err)
	}
	keep = true
	return Spooled{Path: path, Size: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// NormalizeMime normalizes MIME to lowercase token form.
func NormalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if mime == "" {
		return ""
	}
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}
