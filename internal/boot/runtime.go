// Package boot derives typed runtime settings from the loaded configuration.
package boot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/AssetStation/asset-station-library/internal/config"
)

// RuntimeConfig holds parsed runtime settings (sizes, durations, dimensions)
// so that components never parse raw config strings themselves.
type RuntimeConfig struct {
	ServerAddr     string
	Platform       string
	WatchedChannel string
	MaxUploadBytes int64
	ScratchDir     string
	FrameOffset    time.Duration
	FrameWidth     int
	FrameHeight    int
	RenderTimeout  time.Duration
	SettleDelay    time.Duration
	Viewport       int
	JPEGQuality    int
	CatalogRetries int
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	maxBytes, err := units.RAMInBytes(cfg.Ingest.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if maxBytes <= 0 {
		return nil, errors.New("max_upload_size must be positive")
	}

	frameOffset, err := parseDuration("frame_offset", cfg.Thumbnail.FrameOffset)
	if err != nil {
		return nil, err
	}
	renderTimeout, err := parseDuration("render_timeout", cfg.Thumbnail.RenderTimeout)
	if err != nil {
		return nil, err
	}
	settleDelay, err := parseDuration("settle_delay", cfg.Thumbnail.SettleDelay)
	if err != nil {
		return nil, err
	}
	width, height, err := ParseFrameSize(cfg.Thumbnail.FrameSize)
	if err != nil {
		return nil, err
	}

	platform := strings.ToLower(strings.TrimSpace(cfg.Channel.Platform))
	watched := ""
	switch platform {
	case "discord":
		watched = strings.TrimSpace(cfg.Discord.ChannelID)
	case "telegram":
		watched = strings.TrimSpace(cfg.Telegram.ChatID)
	default:
		return nil, fmt.Errorf("unsupported channel platform: %q", cfg.Channel.Platform)
	}

	ret := &RuntimeConfig{
		ServerAddr:     cfg.Server.Addr,
		Platform:       platform,
		WatchedChannel: watched,
		MaxUploadBytes: maxBytes,
		ScratchDir:     cfg.Ingest.ScratchDir,
		FrameOffset:    frameOffset,
		FrameWidth:     width,
		FrameHeight:    height,
		RenderTimeout:  renderTimeout,
		SettleDelay:    settleDelay,
		Viewport:       cfg.Thumbnail.Viewport,
		JPEGQuality:    cfg.Thumbnail.JPEGQuality,
		CatalogRetries: cfg.Catalog.MaxAttempts,
	}
	if ret.Viewport <= 0 {
		ret.Viewport = config.DefaultViewport
	}
	if ret.JPEGQuality <= 0 || ret.JPEGQuality > 100 {
		ret.JPEGQuality = config.DefaultJPEGQuality
	}
	if ret.CatalogRetries <= 0 {
		ret.CatalogRetries = config.DefaultCatalogRetries
	}
	return ret, nil
}

// ParseFrameSize parses a "WIDTHxHEIGHT" string.
func ParseFrameSize(raw string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid frame_size %q: want WIDTHxHEIGHT", raw)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid frame_size width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid frame_size height %q", h)
	}
	return width, height, nil
}

func parseDuration(name, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return d, nil
}
