package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/aggregate"
	"github.com/localgov-analytics/peers-cli/internal/clean"
	"github.com/localgov-analytics/peers-cli/internal/config"
	"github.com/localgov-analytics/peers-cli/internal/distance"
	"github.com/localgov-analytics/peers-cli/internal/ingest"
	"github.com/localgov-analytics/peers-cli/internal/model"
	"github.com/localgov-analytics/peers-cli/internal/report"
	"github.com/localgov-analytics/peers-cli/internal/runfs"
	"github.com/localgov-analytics/peers-cli/internal/transform"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Run the full peer-finding pipeline end to end:

  1. Load raw extracts from the input folder into the data workspace.
  2. Clean each dataset (England only, canonical columns) and validate the
     LSOA-to-LA lookup.
  3. Aggregate LSOA rows to local authority level.
  4. Write distribution and correlation reports for the weighted features.
  5. Transform each feature, keeping the variant closest to Gaussian.
  6. Compute pairwise distances and rank each LA's k nearest peers.

Every run writes into its own timestamped folder under the output directory,
and final artifacts are copied to the stable latest folder.

Examples:
  # Full run with a generated hash
  peers-cli run

  # Tag the run folder for later reference
  peers-cli run --hash baseline`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("hash", "", "custom run folder hash (truncated to workspace.hash_length)")
	rootCmd.AddCommand(runCmd)
}

// dataDirs is the raw/interim/primary workspace layout under the data folder.
type dataDirs struct {
	raw     string
	interim string
	primary string
}

func makeDataDirs(dataDir string) (dataDirs, error) {
	d := dataDirs{
		raw:     filepath.Join(dataDir, "raw"),
		interim: filepath.Join(dataDir, "interim"),
		primary: filepath.Join(dataDir, "primary"),
	}
	for _, dir := range []string{d.raw, d.interim, d.primary} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return d, eris.Wrapf(err, "run: create %s", dir)
		}
	}
	return d, nil
}

func laKeys() model.KeyColumns {
	return model.KeyColumns{Code: cfg.Keys.LACode, Name: cfg.Keys.LAName}
}

// weightedFeatures returns the features with positive weight, which are the
// ones the model and reports use.
func weightedFeatures() []string {
	var features []string
	for feature, weight := range cfg.Model.FeatureWeights {
		if weight > 0 {
			features = append(features, feature)
		}
	}
	return features
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return err
	}

	hash, _ := cmd.Flags().GetString("hash")
	run, err := runfs.New(cfg.Workspace.OutputDir, cfg.Workspace.HashLength, hash, time.Now())
	if err != nil {
		return err
	}

	// Re-init the logger so the run's log file captures everything below.
	if err := config.InitLogger(cfg.Log, run.LogFile); err != nil {
		return err
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("run: pipeline starting")

	if err := run.SnapshotConfig(cfg); err != nil {
		return err
	}

	dirs, err := makeDataDirs(cfg.Workspace.DataDir)
	if err != nil {
		return err
	}
	keys := laKeys()

	log.Info("run: loading data", zap.String("input", cfg.Workspace.InputDir))
	if err := ingest.Load(cfg.Workspace.InputDir, dirs.raw); err != nil {
		return err
	}

	log.Info("run: cleaning data")
	if err := clean.All(dirs.raw, dirs.interim, cfg.Keys.LSOACode, keys, cfg.Clean.LAsToRemove); err != nil {
		return err
	}

	log.Info("run: aggregating to local authority level")
	lookup, err := model.ReadLookupCSV(filepath.Join(dirs.interim, clean.LookupFile), cfg.Keys.LSOACode, keys)
	if err != nil {
		return err
	}
	aggregated, err := aggregate.All(dirs.interim, dirs.primary, lookup, cfg.Keys.LSOACode, keys)
	if err != nil {
		return err
	}

	log.Info("run: writing reports")
	features := weightedFeatures()
	if err := report.Distributions(filepath.Join(run.Reports, report.DistributionsFile), aggregated, features, cfg.Report.HistogramBins); err != nil {
		return err
	}
	if err := report.Correlations(filepath.Join(run.Reports, report.CorrelationsFile), aggregated, features, cfg.Report.HighCorrelation); err != nil {
		return err
	}

	log.Info("run: transforming features")
	transformed, featureReports, err := transform.Assemble(aggregated, transform.Options{
		Weights:   cfg.Model.FeatureWeights,
		Overrides: cfg.Model.CustomTransformations,
		Normalise: cfg.Model.Normalise,
	})
	if err != nil {
		return err
	}
	if err := transformed.WriteCSV(filepath.Join(run.Outputs, "features.csv")); err != nil {
		return err
	}
	if err := report.Transformations(run.Transformations, featureReports); err != nil {
		return err
	}

	log.Info("run: computing distances", zap.String("metric", cfg.Model.DistanceMetric))
	metric, err := distance.ByName(cfg.Model.DistanceMetric)
	if err != nil {
		return err
	}
	matrix, err := distance.Compute(transformed, metric)
	if err != nil {
		return err
	}
	if err := distance.WritePairwise(filepath.Join(run.Outputs, "distances.csv"), cfg.Keys.LAName, matrix.Pairwise()); err != nil {
		return err
	}

	log.Info("run: ranking peers", zap.Int("k", cfg.Model.Peers))
	peers, err := distance.Rank(matrix, cfg.Model.Peers)
	if err != nil {
		return err
	}
	if err := distance.WritePeers(filepath.Join(run.Outputs, "peers.csv"), cfg.Keys.LAName, peers, cfg.Model.Peers); err != nil {
		return err
	}
	examples := distance.Filter(peers, cfg.Report.ExampleLAs)
	if err := distance.WritePeers(filepath.Join(run.Outputs, "example_peers.csv"), cfg.Keys.LAName, examples, cfg.Model.Peers); err != nil {
		return err
	}

	for _, artifact := range []string{"features.csv", "distances.csv", "peers.csv", "example_peers.csv"} {
		if err := run.Publish(artifact); err != nil {
			return err
		}
	}

	log.Info("run: pipeline complete",
		zap.Int("local_authorities", matrix.Len()),
		zap.Int("features", len(transformed.ColumnNames())),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
