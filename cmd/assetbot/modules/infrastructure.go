// Package modules groups the fx providers of the asset bot by concern.
package modules

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"

	"github.com/AssetStation/asset-station-library/internal/boot"
	"github.com/AssetStation/asset-station-library/internal/config"
	"github.com/AssetStation/asset-station-library/internal/logger"
)

// ConfigPath is the TOML file to load; empty falls back to CONFIG_PATH.
type ConfigPath string

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		boot.ProvideRuntimeConfig,
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideConfig(path ConfigPath) (config.Config, error) {
	return LoadConfig(string(path))
}

// LoadConfig resolves the config path (flag, then CONFIG_PATH) and loads it.
func LoadConfig(path string) (config.Config, error) {
	if strings.TrimSpace(path) == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}
