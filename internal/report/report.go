// Package report writes the numeric diagnostics for a run: per-feature
// distribution summaries, the Pearson correlation matrix with highly
// correlated pairs flagged, and per-feature transformation reports.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/localgov-analytics/peers-cli/internal/model"
	"github.com/localgov-analytics/peers-cli/internal/transform"
)

const (
	// DistributionsFile summarises each feature's distribution.
	DistributionsFile = "distributions.csv"
	// CorrelationsFile holds the feature correlation matrix.
	CorrelationsFile = "correlations.csv"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Distributions writes summary statistics and histogram bin counts for the
// named features.
func Distributions(path string, table *model.FeatureTable, features []string, bins int) error {
	if bins < 1 {
		return eris.Errorf("report: histogram bins must be at least 1, got %d", bins)
	}
	if table.Len() == 0 {
		return eris.Wrap(model.ErrSchema, "report: table has no rows")
	}
	sorted := append([]string(nil), features...)
	sort.Strings(sorted)

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"feature", "count", "mean", "std_dev", "min", "max"}
	for i := 1; i <= bins; i++ {
		header = append(header, fmt.Sprintf("bin_%d", i))
	}
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "report: write header to %s", path)
	}

	for _, feature := range sorted {
		values, ok := table.Column(feature)
		if !ok {
			return eris.Wrapf(model.ErrSchema, "report: table has no column %s", feature)
		}
		minV, maxV := values[0], values[0]
		for _, v := range values {
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
		record := []string{
			feature,
			strconv.Itoa(len(values)),
			formatFloat(stat.Mean(values, nil)),
			formatFloat(stat.StdDev(values, nil)),
			formatFloat(minV),
			formatFloat(maxV),
		}
		for _, count := range histogram(values, minV, maxV, bins) {
			record = append(record, strconv.Itoa(count))
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "report: write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "report: flush %s", path)
	}
	zap.L().Info("report: distributions written", zap.String("path", path), zap.Int("features", len(sorted)))
	return nil
}

// histogram counts values into equal-width bins over [min, max]. The maximum
// value lands in the last bin. A zero range puts everything in the first bin.
func histogram(values []float64, minV, maxV float64, bins int) []int {
	counts := make([]int, bins)
	width := (maxV - minV) / float64(bins)
	for _, v := range values {
		if width == 0 {
			counts[0]++
			continue
		}
		bin := int((v - minV) / width)
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
	}
	return counts
}

// Correlations writes the Pearson correlation matrix for the named features
// and logs every pair whose absolute correlation exceeds highValue, since
// strongly correlated features double-count in the distance calculation.
func Correlations(path string, table *model.FeatureTable, features []string, highValue float64) error {
	if table.Len() == 0 {
		return eris.Wrap(model.ErrSchema, "report: table has no rows")
	}
	sorted := append([]string(nil), features...)
	sort.Strings(sorted)

	columns := make([][]float64, len(sorted))
	for i, feature := range sorted {
		values, ok := table.Column(feature)
		if !ok {
			return eris.Wrapf(model.ErrSchema, "report: table has no column %s", feature)
		}
		columns[i] = values
	}

	corr := make([][]float64, len(sorted))
	for i := range sorted {
		corr[i] = make([]float64, len(sorted))
		for j := range sorted {
			if i == j {
				corr[i][j] = 1
				continue
			}
			if j < i {
				corr[i][j] = corr[j][i]
				continue
			}
			corr[i][j] = stat.Correlation(columns[i], columns[j], nil)
		}
	}

	var sum float64
	pairs := 0
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			r := math.Abs(corr[i][j])
			sum += r
			pairs++
			if r > highValue {
				zap.L().Warn("report: highly correlated feature pair, consider dropping one",
					zap.String("feature_1", sorted[i]),
					zap.String("feature_2", sorted[j]),
					zap.Float64("correlation", corr[i][j]))
			}
		}
	}
	if pairs > 0 {
		zap.L().Info("report: correlations computed",
			zap.Int("pairs", pairs),
			zap.Float64("mean_abs_correlation", sum/float64(pairs)))
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"feature"}, sorted...)); err != nil {
		return eris.Wrapf(err, "report: write header to %s", path)
	}
	for i, feature := range sorted {
		record := make([]string, 0, len(sorted)+1)
		record = append(record, feature)
		for j := range sorted {
			record = append(record, formatFloat(corr[i][j]))
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "report: write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "report: flush %s", path)
	}
	return nil
}

// Transformations writes one CSV per feature describing every transformation
// candidate, its Shapiro-Wilk p-value and which one was chosen.
func Transformations(dir string, reports []transform.FeatureReport) error {
	for _, r := range reports {
		path := filepath.Join(dir, r.Feature+".csv")
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "report: create %s", path)
		}

		w := csv.NewWriter(f)
		err = w.Write([]string{"variant", "column", "shapiro_p", "chosen", "greater_than_zero", "normalised"})
		for _, score := range r.Scores {
			if err != nil {
				break
			}
			variant := string(score.Variant)
			if score.Variant == transform.VariantIdentity {
				variant = "none"
			}
			err = w.Write([]string{
				variant,
				score.Column,
				formatFloat(score.PValue),
				strconv.FormatBool(score.Variant == r.Chosen),
				strconv.FormatBool(r.GreaterThanZero),
				strconv.FormatBool(r.Normalised),
			})
		}
		if err == nil {
			w.Flush()
			err = w.Error()
		}
		f.Close()
		if err != nil {
			return eris.Wrapf(err, "report: write %s", path)
		}
	}
	zap.L().Info("report: transformation reports written", zap.String("dir", dir), zap.Int("features", len(reports)))
	return nil
}
