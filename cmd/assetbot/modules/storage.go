package modules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/AssetStation/asset-station-library/internal/config"
	"github.com/AssetStation/asset-station-library/internal/storage"
	"github.com/AssetStation/asset-station-library/internal/storage/filesystem"
	"github.com/AssetStation/asset-station-library/internal/storage/github"
	"github.com/AssetStation/asset-station-library/internal/storage/s3"
)

var StorageModule = fx.Module(
	"storage",
	fx.Provide(provideBackend),
)

func provideBackend(log *slog.Logger, cfg config.Config) (storage.Backend, error) {
	return OpenBackend(context.Background(), log, cfg.Storage)
}

// OpenBackend builds the storage backend selected by cfg.Backend.
func OpenBackend(ctx context.Context, log *slog.Logger, cfg config.StorageConfig) (storage.Backend, error) {
	var (
		backend storage.Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "github", "":
		gc := cfg.GitHub
		backend, err = github.New(ctx, log, github.Config{
			Token:          gc.Token,
			Owner:          gc.Owner,
			Repo:           gc.Repo,
			ReleaseTag:     gc.ReleaseTag,
			ReleaseName:    gc.ReleaseName,
			CatalogPath:    gc.CatalogPath,
			Branch:         gc.Branch,
			CommitterName:  gc.CommitterName,
			CommitterEmail: gc.CommitterEmail,
			BaseURL:        gc.BaseURL,
		})
	case "s3":
		sc := cfg.S3
		backend, err = s3.New(ctx, log, s3.Config{
			Bucket:        sc.Bucket,
			Region:        sc.Region,
			Endpoint:      sc.Endpoint,
			Prefix:        sc.Prefix,
			CatalogKey:    sc.CatalogKey,
			PublicBaseURL: sc.PublicBaseURL,
			UsePathStyle:  sc.UsePathStyle,
		})
	case "filesystem", "fs":
		fc := cfg.Filesystem
		backend, err = filesystem.New(log, filesystem.Config{
			Root:        fc.Root,
			BaseURL:     fc.BaseURL,
			CatalogPath: fc.CatalogPath,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}
	log.Info("storage backend ready", slog.String("backend", backend.Name()))
	return backend, nil
}
