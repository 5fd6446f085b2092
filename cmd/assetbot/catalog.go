package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AssetStation/asset-station-library/cmd/assetbot/modules"
	"github.com/AssetStation/asset-station-library/internal/catalog"
	"github.com/AssetStation/asset-station-library/internal/config"
	"github.com/AssetStation/asset-station-library/internal/logger"
)

var (
	catalogLimit int
	catalogJSON  bool
)

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"ls"},
	Short:   "List the most recent catalog entries",
	Args:    cobra.NoArgs,
	RunE:    runCatalog,
}

func init() {
	catalogCmd.Flags().IntVarP(&catalogLimit, "limit", "n", 20, "number of entries to show (0 for all)")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print raw JSON records")
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	cfg, err := modules.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()
	backend, err := modules.OpenBackend(ctx, logger.L, cfg.Storage)
	if err != nil {
		return err
	}
	attempts := cfg.Catalog.MaxAttempts
	if attempts <= 0 {
		attempts = config.DefaultCatalogRetries
	}
	records, err := catalog.NewService(logger.L, backend.Catalog(), attempts).List(ctx)
	if err != nil {
		return err
	}
	if catalogLimit > 0 && len(records) > catalogLimit {
		records = records[:catalogLimit]
	}

	out := cmd.OutOrStdout()
	if catalogJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCATEGORY\tNAME\tSOURCE\tURL")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rec.Date.Format("2006-01-02 15:04"), rec.Category, rec.Name, rec.Source, rec.DownloadURL)
	}
	return tw.Flush()
}
