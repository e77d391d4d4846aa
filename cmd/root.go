package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldlab/geojoin/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geojoin",
	Short: "CRS-aware point-in-polygon spatial join",
	Long:  "Joins a tabular point layer against a polygon layer: each point picks up the attributes of the polygon containing it, with explicit handling for CRS mismatches and messy records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
