package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AssetStation/asset-station-library/internal/classify"
	"github.com/AssetStation/asset-station-library/internal/ingest"
)

var classifyCmd = &cobra.Command{
	Use:   "classify NAME...",
	Short: "Check filenames against the naming convention without uploading",
	Long: `Classify each filename and print the name it would be stored under,
or the reply the bot would post when rejecting it.

Examples:
  assetbot classify "StockPhotos_Sunset-Beach.jpg"
  assetbot classify "3D_Chair.fbx" "Video_Intro City night.mp4"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	rejected := 0
	for _, name := range args {
		res, err := classify.Classify(name)
		if err != nil {
			rejected++
			fmt.Fprintf(out, "%s\n  %s\n", name, ingest.RejectionMessage(err))
			continue
		}
		fmt.Fprintf(out, "%s\n  -> %s (category %s, kind %s)\n", name, res.StorageName(), res.Category, res.Kind)
	}
	if rejected > 0 {
		return fmt.Errorf("%d of %d filenames rejected", rejected, len(args))
	}
	return nil
}
