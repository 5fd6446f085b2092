package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AssetStation/asset-station-library/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "assetbot %s\n", version.GetInfo())
		if version.BuildTime != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", version.BuildTime)
		}
	},
}
