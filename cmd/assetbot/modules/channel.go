package modules

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/AssetStation/asset-station-library/internal/boot"
	"github.com/AssetStation/asset-station-library/internal/channel"
	"github.com/AssetStation/asset-station-library/internal/channel/adapters/discord"
	"github.com/AssetStation/asset-station-library/internal/channel/adapters/telegram"
	"github.com/AssetStation/asset-station-library/internal/config"
	"github.com/AssetStation/asset-station-library/internal/ingest"
)

var ChannelModule = fx.Module(
	"channel",
	fx.Provide(
		provideReceiver,
		provideChannelManager,
	),
	fx.Invoke(startChannelManager),
)

// ---------------------------------------------------------------------------
// channel providers
// ---------------------------------------------------------------------------

func provideReceiver(log *slog.Logger, cfg config.Config, rc *boot.RuntimeConfig) (channel.Receiver, error) {
	platform, err := channel.ParseChannelType(rc.Platform)
	if err != nil {
		return nil, err
	}
	switch platform {
	case channel.Discord:
		return discord.NewDiscordAdapter(log, discord.Config{BotToken: cfg.Discord.Token}), nil
	case channel.Telegram:
		return telegram.NewTelegramAdapter(log, telegram.Config{BotToken: cfg.Telegram.Token}), nil
	default:
		return nil, fmt.Errorf("no receiver for %s", platform)
	}
}

func provideChannelManager(log *slog.Logger, receiver channel.Receiver, pipeline *ingest.Pipeline, rc *boot.RuntimeConfig) *channel.Manager {
	if rc.WatchedChannel == "" {
		log.Warn("no watched channel configured, all submissions will be ignored")
	}
	mgr := channel.NewManager(log, receiver, pipeline.HandleSubmission)
	mgr.Use(channel.Gate(rc.WatchedChannel))
	return mgr
}

func startChannelManager(lc fx.Lifecycle, log *slog.Logger, channelManager *channel.Manager, rc *boot.RuntimeConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := channelManager.Start(ctx); err != nil {
				cancel()
				return err
			}
			log.Info("watching channel", slog.String("platform", rc.Platform), slog.String("channel_id", rc.WatchedChannel))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return channelManager.Shutdown(stopCtx)
		},
	})
}
