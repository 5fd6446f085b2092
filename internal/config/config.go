// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":3000"
	DefaultPlatform       = "discord"
	DefaultStorageBackend = "github"
	DefaultMaxUploadSize  = "50MiB"
	DefaultCatalogPath    = "assets.json"
	DefaultReleaseTag     = "storage"
	DefaultReleaseName    = "Asset Storage"
	DefaultCommitterName  = "BridgeBot"
	DefaultCommitterEmail = "bot@assetstation.com"
	DefaultFFmpegPath     = "ffmpeg"
	DefaultFrameOffset    = "1s"
	DefaultFrameSize      = "640x360"
	DefaultViewerURL      = "https://ajax.googleapis.com/ajax/libs/model-viewer/3.3.0/model-viewer.min.js"
	DefaultRenderTimeout  = "45s"
	DefaultSettleDelay    = "1s"
	DefaultViewport       = 500
	DefaultJPEGQuality    = 90
	DefaultCatalogRetries = 3
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Channel   ChannelConfig   `toml:"channel"`
	Discord   DiscordConfig   `toml:"discord"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Ingest    IngestConfig    `toml:"ingest"`
	Thumbnail ThumbnailConfig `toml:"thumbnail"`
	Storage   StorageConfig   `toml:"storage"`
	Catalog   CatalogConfig   `toml:"catalog"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the liveness listener address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// ChannelConfig selects the chat platform the bot listens on.
type ChannelConfig struct {
	Platform string `toml:"platform"`
}

// DiscordConfig holds the bot token and the single watched channel.
type DiscordConfig struct {
	Token     string `toml:"token"`
	ChannelID string `toml:"channel_id"`
}

// TelegramConfig holds the bot token and the single watched chat.
type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID string `toml:"chat_id"`
}

// IngestConfig holds pipeline limits. MaxUploadSize accepts human sizes ("50MiB").
type IngestConfig struct {
	MaxUploadSize string `toml:"max_upload_size"`
	ScratchDir    string `toml:"scratch_dir"`
}

// ThumbnailConfig holds ffmpeg and headless Chrome settings.
type ThumbnailConfig struct {
	FFmpegPath    string `toml:"ffmpeg_path"`
	FrameOffset   string `toml:"frame_offset"`
	FrameSize     string `toml:"frame_size"`
	ChromePath    string `toml:"chrome_path"`
	ViewerURL     string `toml:"viewer_url"`
	Viewport      int    `toml:"viewport"`
	RenderTimeout string `toml:"render_timeout"`
	SettleDelay   string `toml:"settle_delay"`
	JPEGQuality   int    `toml:"jpeg_quality"`
}

// StorageConfig selects the backend and carries per-backend settings.
type StorageConfig struct {
	Backend    string           `toml:"backend"`
	GitHub     GitHubConfig     `toml:"github"`
	S3         S3Config         `toml:"s3"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// GitHubConfig stores binaries as release assets and the catalog as a repo file.
type GitHubConfig struct {
	Token          string `toml:"token"`
	Owner          string `toml:"owner"`
	Repo           string `toml:"repo"`
	ReleaseTag     string `toml:"release_tag"`
	ReleaseName    string `toml:"release_name"`
	CatalogPath    string `toml:"catalog_path"`
	Branch         string `toml:"branch"`
	CommitterName  string `toml:"committer_name"`
	CommitterEmail string `toml:"committer_email"`
	BaseURL        string `toml:"base_url"`
}

// S3Config stores binaries and the catalog in one bucket.
type S3Config struct {
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
	Prefix        string `toml:"prefix"`
	CatalogKey    string `toml:"catalog_key"`
	PublicBaseURL string `toml:"public_base_url"`
	UsePathStyle  bool   `toml:"use_path_style"`
}

// FilesystemConfig stores everything under a local root, for development.
type FilesystemConfig struct {
	Root        string `toml:"root"`
	BaseURL     string `toml:"base_url"`
	CatalogPath string `toml:"catalog_path"`
}

// CatalogConfig bounds the optimistic-concurrency retry loop.
type CatalogConfig struct {
	MaxAttempts int `toml:"max_attempts"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Channel: ChannelConfig{
			Platform: DefaultPlatform,
		},
		Ingest: IngestConfig{
			MaxUploadSize: DefaultMaxUploadSize,
		},
		Thumbnail: ThumbnailConfig{
			FFmpegPath:    DefaultFFmpegPath,
			FrameOffset:   DefaultFrameOffset,
			FrameSize:     DefaultFrameSize,
			ViewerURL:     DefaultViewerURL,
			Viewport:      DefaultViewport,
			RenderTimeout: DefaultRenderTimeout,
			SettleDelay:   DefaultSettleDelay,
			JPEGQuality:   DefaultJPEGQuality,
		},
		Storage: StorageConfig{
			Backend: DefaultStorageBackend,
			GitHub: GitHubConfig{
				ReleaseTag:     DefaultReleaseTag,
				ReleaseName:    DefaultReleaseName,
				CatalogPath:    DefaultCatalogPath,
				CommitterName:  DefaultCommitterName,
				CommitterEmail: DefaultCommitterEmail,
			},
			S3: S3Config{
				CatalogKey: DefaultCatalogPath,
			},
			Filesystem: FilesystemConfig{
				Root:        "data",
				CatalogPath: DefaultCatalogPath,
			},
		},
		Catalog: CatalogConfig{
			MaxAttempts: DefaultCatalogRetries,
		},
	}
}

// Load reads and parses the TOML config file at path, applies default values
// for missing fields and then environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv keeps the environment variable names the bot has always been deployed with.
func applyEnv(cfg *Config) {
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	if value := strings.TrimSpace(os.Getenv("PORT")); value != "" {
		cfg.Server.Addr = ":" + value
	}
	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setString(&cfg.Channel.Platform, "CHANNEL_PLATFORM")
	setString(&cfg.Discord.Token, "DISCORD_TOKEN")
	setString(&cfg.Discord.ChannelID, "CHANNEL_ID")
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&cfg.Ingest.MaxUploadSize, "MAX_UPLOAD_SIZE")
	setString(&cfg.Thumbnail.FFmpegPath, "FFMPEG_PATH")
	setString(&cfg.Thumbnail.ChromePath, "CHROME_PATH")
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.Storage.GitHub.Owner, "GITHUB_OWNER")
	setString(&cfg.Storage.GitHub.Repo, "GITHUB_REPO")
	setString(&cfg.Storage.S3.Bucket, "S3_BUCKET")
	setString(&cfg.Storage.S3.Region, "AWS_REGION")
	setString(&cfg.Storage.S3.Endpoint, "S3_ENDPOINT")
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}
