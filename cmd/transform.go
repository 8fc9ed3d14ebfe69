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
	"github.com/localgov-analytics/peers-cli/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform aggregated features for the distance model",
	Long: `Read primary/aggregated.csv, transform each weighted feature through
every power-transform variant, keep the one closest to Gaussian, and write
the model-ready feature table. Run the clean stage first.

Examples:
  # Write features.csv next to the aggregated data
  peers-cli transform

  # Also write per-feature transformation reports
  peers-cli transform --report-dir reports/transformations`,
	RunE: runTransform,
}

func init() {
	f := transformCmd.Flags()
	f.String("output", "features.csv", "output path for the transformed feature table")
	f.String("report-dir", "", "if set, write per-feature transformation reports here")
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	aggregatedPath := filepath.Join(cfg.Workspace.DataDir, "primary", aggregate.AggregatedFile)
	aggregated, err := model.ReadCSV(aggregatedPath, laKeys())
	if err != nil {
		return err
	}

	transformed, featureReports, err := transform.Assemble(aggregated, transform.Options{
		Weights:   cfg.Model.FeatureWeights,
		Overrides: cfg.Model.CustomTransformations,
		Normalise: cfg.Model.Normalise,
	})
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if err := transformed.WriteCSV(output); err != nil {
		return err
	}

	if reportDir, _ := cmd.Flags().GetString("report-dir"); reportDir != "" {
		if err := os.MkdirAll(reportDir, 0o755); err != nil {
			return eris.Wrapf(err, "transform: create %s", reportDir)
		}
		if err := report.Transformations(reportDir, featureReports); err != nil {
			return err
		}
	}

	zap.L().Info("transform: feature table written",
		zap.String("output", output),
		zap.Int("features", len(transformed.ColumnNames())))
	return nil
}
