package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/distance"
	"github.com/localgov-analytics/peers-cli/internal/model"
)

var distanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Compute pairwise distances and peer rankings",
	Long: `Read a transformed feature table and write the pairwise distance
table and each local authority's top-k peers. Run the transform stage first.

Supported metrics: ` + strings.Join(distance.MetricNames(), ", ") + `.

Examples:
  peers-cli distance --features features.csv --output-dir .
  peers-cli distance --metric manhattan`,
	RunE: runDistance,
}

func init() {
	f := distanceCmd.Flags()
	f.String("features", "features.csv", "path to the transformed feature table")
	f.String("output-dir", ".", "directory for distances.csv, peers.csv and example_peers.csv")
	f.String("metric", "", "distance metric (overrides config)")
	rootCmd.AddCommand(distanceCmd)
}

func runDistance(cmd *cobra.Command, _ []string) error {
	featuresPath, _ := cmd.Flags().GetString("features")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	metricName, _ := cmd.Flags().GetString("metric")
	if metricName == "" {
		metricName = cfg.Model.DistanceMetric
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return eris.Wrapf(err, "distance: create %s", outputDir)
	}

	table, err := model.ReadCSV(featuresPath, laKeys())
	if err != nil {
		return err
	}

	metric, err := distance.ByName(metricName)
	if err != nil {
		return err
	}
	matrix, err := distance.Compute(table, metric)
	if err != nil {
		return err
	}

	if err := distance.WritePairwise(filepath.Join(outputDir, "distances.csv"), cfg.Keys.LAName, matrix.Pairwise()); err != nil {
		return err
	}

	peers, err := distance.Rank(matrix, cfg.Model.Peers)
	if err != nil {
		return err
	}
	if err := distance.WritePeers(filepath.Join(outputDir, "peers.csv"), cfg.Keys.LAName, peers, cfg.Model.Peers); err != nil {
		return err
	}
	examples := distance.Filter(peers, cfg.Report.ExampleLAs)
	if err := distance.WritePeers(filepath.Join(outputDir, "example_peers.csv"), cfg.Keys.LAName, examples, cfg.Model.Peers); err != nil {
		return err
	}

	zap.L().Info("distance: peers written",
		zap.String("metric", metricName),
		zap.Int("local_authorities", matrix.Len()),
		zap.Int("k", cfg.Model.Peers))
	return nil
}
