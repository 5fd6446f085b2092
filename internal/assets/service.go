// Package assets uploads binaries to the configured object store.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/AssetStation/asset-station-library/internal/storage"
)

// Upload is one file to persist under Name.
type Upload struct {
	Name        string
	Path        string
	ContentType string
}

// Service stores uploads, retrying once under a timestamped name when the
// preferred name is already taken.
type Service struct {
	store  storage.ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an asset service backed by store.
func NewService(log *slog.Logger, store storage.ObjectStore) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "assets")),
		now:    time.Now,
	}
}

// Stored is where an upload ended up. Name differs from the requested one
// after a collision retry.
type Stored struct {
	Name string
	URL  string
}

// Upload stores u and reports the name and public URL it was stored under.
// A name collision is retried exactly once; any other error is returned as is.
func (s *Service) Upload(ctx context.Context, u Upload) (Stored, error) {
	url, err := s.store.Put(ctx, storage.Object{Name: u.Name, Path: u.Path, ContentType: u.ContentType})
	if err == nil {
		return Stored{Name: u.Name, URL: url}, nil
	}
	if !errors.Is(err, storage.ErrAlreadyExists) {
		return Stored{}, fmt.Errorf("upload %s: %w", u.Name, err)
	}

	alt := CollisionName(u.Name, s.now())
	s.logger.Info("asset name taken, retrying", slog.String("name", u.Name), slog.String("retry_name", alt))
	url, err = s.store.Put(ctx, storage.Object{Name: alt, Path: u.Path, ContentType: u.ContentType})
	if err != nil {
		return Stored{}, fmt.Errorf("upload %s: %w", alt, err)
	}
	return Stored{Name: alt, URL: url}, nil
}

// CollisionName inserts the millisecond timestamp between stem and extension:
// "Icon_Star.png" becomes "Icon_Star_1700000000000.png".
func CollisionName(name string, at time.Time) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", stem, at.UnixMilli(), ext)
}
