package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/aggregate"
	"github.com/localgov-analytics/peers-cli/internal/model"
	"github.com/localgov-analytics/peers-cli/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write distribution and correlation reports",
	Long: `Read primary/aggregated.csv and write per-feature distribution
summaries and the feature correlation matrix. Pairs correlated above the
configured threshold are logged, since they double-count in the distance
calculation. Run the clean stage first.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("output-dir", ".", "directory for distributions.csv and correlations.csv")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return eris.Wrapf(err, "report: create %s", outputDir)
	}

	aggregatedPath := filepath.Join(cfg.Workspace.DataDir, "primary", aggregate.AggregatedFile)
	aggregated, err := model.ReadCSV(aggregatedPath, laKeys())
	if err != nil {
		return err
	}

	features := weightedFeatures()
	if err := report.Distributions(filepath.Join(outputDir, report.DistributionsFile), aggregated, features, cfg.Report.HistogramBins); err != nil {
		return err
	}
	if err := report.Correlations(filepath.Join(outputDir, report.CorrelationsFile), aggregated, features, cfg.Report.HighCorrelation); err != nil {
		return err
	}

	zap.L().Info("report: reports written",
		zap.String("output_dir", outputDir),
		zap.Int("features", len(features)))
	return nil
}
