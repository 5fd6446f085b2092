// Package github stores asset binaries as release assets of a GitHub
// repository and keeps the catalog as a file committed to that repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/AssetStation/asset-station-library/internal/storage"
)

// Config describes the repository, release and committer used for storage.
type Config struct {
	Token          string
	Owner          string
	Repo           string
	ReleaseTag     string
	ReleaseName    string
	CatalogPath    string
	Branch         string
	CommitterName  string
	CommitterEmail string
	// BaseURL points the client at GitHub Enterprise or a test server.
	BaseURL string
}

// Store implements storage.Backend on top of the GitHub REST API.
type Store struct {
	client *gh.Client
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	releaseID int64
}

// New builds a Store authenticated with a static token.
func New(ctx context.Context, log *slog.Logger, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Owner) == "" || strings.TrimSpace(cfg.Repo) == "" {
		return nil, errors.New("github owner and repo are required")
	}
	var httpClient *http.Client
	if cfg.Token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}
	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base := strings.TrimRight(cfg.BaseURL, "/") + "/"
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = u
		client.UploadURL = u
	}
	return NewWithClient(log, client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(log *slog.Logger, client *gh.Client, cfg Config) *Store {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ReleaseTag == "" {
		cfg.ReleaseTag = "storage"
	}
	if cfg.ReleaseName == "" {
		cfg.ReleaseName = "Asset Storage"
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "assets.json"
	}
	return &Store{
		client: client,
		cfg:    cfg,
		logger: log.With(slog.String("storage", "github"), slog.String("repo", cfg.Owner+"/"+cfg.Repo)),
	}
}

// Name identifies the backend in logs.
func (s *Store) Name() string { return "github" }

// Catalog returns the catalog file of the repository.
func (s *Store) Catalog() storage.Document { return &contentsDocument{store: s} }

// Put uploads obj as a release asset. GitHub rejects duplicate asset names
// with 422 already_exists, which is reported as storage.ErrAlreadyExists.
func (s *Store) Put(ctx context.Context, obj storage.Object) (string, error) {
	name, err := storage.CleanName(obj.Name)
	if err != nil {
		return "", err
	}
	releaseID, err := s.release(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.Open(obj.Path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	mediaType := obj.ContentType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	opts := &gh.UploadOptions{Name: name, MediaType: mediaType}
	asset, _, err := s.client.Repositories.UploadReleaseAsset(ctx, s.cfg.Owner, s.cfg.Repo, releaseID, opts, f)
	if err != nil {
		if hasErrorCode(err, "already_exists") {
			return "", storage.ErrAlreadyExists
		}
		return "", fmt.Errorf("upload release asset %s: %w", name, err)
	}
	s.logger.Debug("release asset uploaded", slog.String("name", name), slog.Int64("asset_id", asset.GetID()))
	return asset.GetBrowserDownloadURL(), nil
}

// release returns the ID of the storage release, creating it on first use.
func (s *Store) release(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.releaseID != 0 {
		return s.releaseID, nil
	}

	rel, _, err := s.client.Repositories.GetReleaseByTag(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.ReleaseTag)
	if err != nil {
		if !isStatus(err, http.StatusNotFound) {
			return 0, fmt.Errorf("get release %q: %w", s.cfg.ReleaseTag, err)
		}
		rel, _, err = s.client.Repositories.CreateRelease(ctx, s.cfg.Owner, s.cfg.Repo, &gh.RepositoryRelease{
			TagName: gh.String(s.cfg.ReleaseTag),
			Name:    gh.String(s.cfg.ReleaseName),
		})
		if err != nil {
			return 0, fmt.Errorf("create release %q: %w", s.cfg.ReleaseTag, err)
		}
		s.logger.Info("storage release created", slog.String("tag", s.cfg.ReleaseTag), slog.Int64("release_id", rel.GetID()))
	}
	s.releaseID = rel.GetID()
	return s.releaseID, nil
}

// contentsDocument is the catalog file, versioned by its blob SHA.
type contentsDocument struct {
	store *Store
}

func (d *contentsDocument) Read(ctx context.Context) ([]byte, string, error) {
	s := d.store
	var opts *gh.RepositoryContentGetOptions
	if s.cfg.Branch != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: s.cfg.Branch}
	}
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.CatalogPath, opts)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, "", storage.ErrNotFound
		}
		return nil, "", fmt.Errorf("get catalog: %w", err)
	}
	if file == nil {
		return nil, "", fmt.Errorf("catalog path %q is a directory", s.cfg.CatalogPath)
	}

	sha := file.GetSHA()
	// Files above 1 MB come back without inline content.
	if file.GetEncoding() == "none" || (file.Content == nil && file.GetSize() > 0) {
		raw, _, err := s.client.Git.GetBlobRaw(ctx, s.cfg.Owner, s.cfg.Repo, sha)
		if err != nil {
			return nil, "", fmt.Errorf("get catalog blob: %w", err)
		}
		return raw, sha, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, "", fmt.Errorf("decode catalog: %w", err)
	}
	return []byte(content), sha, nil
}

func (d *contentsDocument) Write(ctx context.Context, data []byte, version, message string) error {
	s := d.store
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: data,
	}
	if s.cfg.Branch != "" {
		opts.Branch = gh.String(s.cfg.Branch)
	}
	if s.cfg.CommitterName != "" {
		opts.Committer = &gh.CommitAuthor{
			Name:  gh.String(s.cfg.CommitterName),
			Email: gh.String(s.cfg.CommitterEmail),
		}
	}

	var err error
	if version == "" {
		_, _, err = s.client.Repositories.CreateFile(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.CatalogPath, opts)
	} else {
		opts.SHA = gh.String(version)
		_, _, err = s.client.Repositories.UpdateFile(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.CatalogPath, opts)
	}
	if err != nil {
		// 409: SHA no longer matches. 422: file appeared while we thought it absent.
		if isStatus(err, http.StatusConflict) || isStatus(err, http.StatusUnprocessableEntity) {
			return storage.ErrConflict
		}
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func isStatus(err error, status int) bool {
	var resp *gh.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		return resp.Response.StatusCode == status
	}
	return false
}

func hasErrorCode(err error, code string) bool {
	var resp *gh.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	for _, e := range resp.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}
