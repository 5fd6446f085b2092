package modules

import (
	"log/slog"
	"os/exec"

	"go.uber.org/fx"

	"github.com/AssetStation/asset-station-library/internal/assets"
	"github.com/AssetStation/asset-station-library/internal/boot"
	"github.com/AssetStation/asset-station-library/internal/catalog"
	"github.com/AssetStation/asset-station-library/internal/config"
	"github.com/AssetStation/asset-station-library/internal/ingest"
	"github.com/AssetStation/asset-station-library/internal/media"
	"github.com/AssetStation/asset-station-library/internal/storage"
)

var IngestModule = fx.Module(
	"ingest",
	fx.Provide(
		provideFrameExtractor,
		provideModelRenderer,
		media.NewGenerator,
		provideAssetService,
		provideCatalogService,
		providePipeline,
	),
)

// ---------------------------------------------------------------------------
// thumbnail tools
// ---------------------------------------------------------------------------

func provideFrameExtractor(log *slog.Logger, cfg config.Config, rc *boot.RuntimeConfig) media.FrameExtractor {
	path := cfg.Thumbnail.FFmpegPath
	if resolved, err := exec.LookPath(path); err != nil {
		log.Warn("ffmpeg not found, video thumbnails will fail", slog.String("path", path), slog.Any("error", err))
	} else {
		log.Info("ffmpeg resolved", slog.String("path", resolved))
		path = resolved
	}
	return media.FFmpeg{
		Path:   path,
		Offset: rc.FrameOffset,
		Width:  rc.FrameWidth,
		Height: rc.FrameHeight,
	}
}

func provideModelRenderer(log *slog.Logger, cfg config.Config, rc *boot.RuntimeConfig) media.ModelRenderer {
	return media.ChromeRenderer{
		ExecPath:  cfg.Thumbnail.ChromePath,
		ViewerURL: cfg.Thumbnail.ViewerURL,
		Viewport:  rc.Viewport,
		Timeout:   rc.RenderTimeout,
		Settle:    rc.SettleDelay,
		Quality:   rc.JPEGQuality,
		Logger:    log.With(slog.String("component", "chrome")),
	}
}

// ---------------------------------------------------------------------------
// services
// ---------------------------------------------------------------------------

func provideAssetService(log *slog.Logger, backend storage.Backend) *assets.Service {
	return assets.NewService(log, backend)
}

func provideCatalogService(log *slog.Logger, backend storage.Backend, rc *boot.RuntimeConfig) *catalog.Service {
	return catalog.NewService(log, backend.Catalog(), rc.CatalogRetries)
}

func providePipeline(log *slog.Logger, rc *boot.RuntimeConfig, generator *media.Generator, assetService *assets.Service, catalogService *catalog.Service) *ingest.Pipeline {
	return ingest.NewPipeline(log, ingest.Config{
		MaxUploadBytes: rc.MaxUploadBytes,
		ScratchDir:     rc.ScratchDir,
	}, generator, assetService, catalogService)
}
