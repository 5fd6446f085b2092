package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/AssetStation/asset-station-library/cmd/assetbot/modules"
	"github.com/AssetStation/asset-station-library/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot and the liveness server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Starting Asset Station bot %s\n", version.GetInfo())
		app := newApp(configPath)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

func newApp(path string) *fx.App {
	return fx.New(
		appOptions(path),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}

func appOptions(path string) fx.Option {
	return fx.Options(
		fx.Supply(modules.ConfigPath(path)),
		modules.InfraModule,
		modules.StorageModule,
		modules.IngestModule,
		modules.ChannelModule,
		modules.ServerModule,
	)
}
