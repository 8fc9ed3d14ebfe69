package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/aggregate"
	"github.com/localgov-analytics/peers-cli/internal/clean"
	"github.com/localgov-analytics/peers-cli/internal/ingest"
	"github.com/localgov-analytics/peers-cli/internal/model"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Load, clean and aggregate the data workspace",
	Long: `Load raw extracts from the input folder, clean every dataset and
aggregate to local authority level, leaving primary/aggregated.csv ready for
the transform stage. Useful for iterating on cleaning config without
producing a full run folder.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("skip-load", false, "clean the existing raw folder without re-copying inputs")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	dirs, err := makeDataDirs(cfg.Workspace.DataDir)
	if err != nil {
		return err
	}
	keys := laKeys()

	skipLoad, _ := cmd.Flags().GetBool("skip-load")
	if !skipLoad {
		if err := ingest.Load(cfg.Workspace.InputDir, dirs.raw); err != nil {
			return err
		}
	}

	if err := clean.All(dirs.raw, dirs.interim, cfg.Keys.LSOACode, keys, cfg.Clean.LAsToRemove); err != nil {
		return err
	}

	lookup, err := model.ReadLookupCSV(filepath.Join(dirs.interim, clean.LookupFile), cfg.Keys.LSOACode, keys)
	if err != nil {
		return err
	}
	aggregated, err := aggregate.All(dirs.interim, dirs.primary, lookup, cfg.Keys.LSOACode, keys)
	if err != nil {
		return err
	}

	zap.L().Info("clean: workspace ready",
		zap.Int("local_authorities", aggregated.Len()),
		zap.String("aggregated", filepath.Join(dirs.primary, aggregate.AggregatedFile)))
	return nil
}
