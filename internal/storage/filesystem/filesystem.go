// Package filesystem implements storage.Backend on the local filesystem.
// It is meant for development and single-node deployments: the catalog
// compare-and-swap is only atomic within one process.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AssetStation/asset-station-library/internal/storage"
)

// Config holds the root directory, the public URL prefix and the catalog file name.
type Config struct {
	Root        string
	BaseURL     string
	CatalogPath string
}

// Store keeps objects as files under Root.
type Store struct {
	root    string
	baseURL string
	catalog *document
	logger  *slog.Logger
}

// New resolves Root to an absolute path and creates it.
func New(log *slog.Logger, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, fmt.Errorf("filesystem root required")
	}
	if log == nil {
		log = slog.Default()
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	catalogName := cfg.CatalogPath
	if catalogName == "" {
		catalogName = "assets.json"
	}
	s := &Store{
		root:    root,
		baseURL: cfg.BaseURL,
		logger:  log.With(slog.String("storage", "filesystem")),
	}
	catalogPath, err := s.fullPath(catalogName)
	if err != nil {
		return nil, err
	}
	s.catalog = &document{path: catalogPath}
	return s, nil
}

// Name identifies the backend in logs.
func (s *Store) Name() string { return "filesystem" }

// Catalog returns the catalog document stored next to the objects.
func (s *Store) Catalog() storage.Document { return s.catalog }

// Put copies obj.Path into the store, failing if the name is taken.
func (s *Store) Put(ctx context.Context, obj storage.Object) (string, error) {
	name, err := storage.CleanName(obj.Name)
	if err != nil {
		return "", err
	}
	dst, err := s.fullPath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	src, err := os.Open(obj.Path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", storage.ErrAlreadyExists
		}
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(out, &ctxReader{ctx: ctx, r: src}); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close object: %w", err)
	}

	s.logger.Debug("object stored", slog.String("name", name))
	if s.baseURL == "" {
		return "file://" + filepath.ToSlash(dst), nil
	}
	return storage.JoinURL(s.baseURL, name), nil
}

func (s *Store) fullPath(name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", storage.ErrInvalidName
	}
	full := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", storage.ErrInvalidName
	}
	return full, nil
}

// document is a JSON file versioned by the SHA-256 of its content.
type document struct {
	path string
	mu   sync.Mutex
}

func (d *document) Read(_ context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", storage.ErrNotFound
		}
		return nil, "", fmt.Errorf("read catalog: %w", err)
	}
	return data, Version(data), nil
}

func (d *document) Write(_ context.Context, data []byte, version, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := os.ReadFile(d.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if version != "" {
			return storage.ErrConflict
		}
	case err != nil:
		return fmt.Errorf("read catalog: %w", err)
	default:
		if version == "" || Version(current) != version {
			return storage.ErrConflict
		}
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Version is the version token of a catalog body.
func Version(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
