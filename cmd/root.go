package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "peers-cli",
	Short: "Ranked peer local authorities for England",
	Long:  "Cleans and aggregates LSOA-level census extracts to local authority level, transforms each feature towards a Gaussian shape, and ranks every local authority's nearest statistical peers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log, ""); err != nil {
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
