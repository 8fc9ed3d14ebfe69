package transform

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/config"
	"github.com/localgov-analytics/peers-cli/internal/model"
)

// Options configures feature assembly.
type Options struct {
	// Weights maps feature name to a non-negative weight. Weight 0 excludes
	// the feature entirely.
	Weights map[string]float64
	// Overrides maps feature name to a variant code, bypassing Gaussian
	// selection for that feature.
	Overrides map[string]string
	// Normalise rescales every candidate column to [0, weight] before
	// selection.
	Normalise bool
}

// FeatureReport captures what happened to one feature during assembly, for
// the transformation report.
type FeatureReport struct {
	Feature         string
	Weight          float64
	GreaterThanZero bool
	Normalised      bool
	Scores          []CandidateScore
	Best            Variant
	Chosen          Variant
	Overridden      bool
}

// Assemble runs transform, optional normalization, and variant selection for
// every weighted feature, then merges the chosen column per feature into one
// table keyed by LA identity.
//
// Features are processed in name order so repeated runs produce identical
// output files. The merge is an inner join: an LA missing from any processed
// feature drops out of the final table, and the drop count is logged.
func Assemble(table *model.FeatureTable, opts Options) (*model.FeatureTable, []FeatureReport, error) {
	if err := validate(opts); err != nil {
		return nil, nil, err
	}

	features := make([]string, 0, len(opts.Weights))
	for feature := range opts.Weights {
		features = append(features, feature)
	}
	sort.Strings(features)

	out, err := model.NewFeatureTable(table.Keys(), table.Identities())
	if err != nil {
		return nil, nil, err
	}

	var reports []FeatureReport
	for _, feature := range features {
		weight := opts.Weights[feature]
		if weight <= 0 {
			zap.L().Info("transform: feature excluded by zero weight", zap.String("feature", feature))
			continue
		}

		values, ok := table.Column(feature)
		if !ok {
			return nil, nil, eris.Wrapf(model.ErrSchema, "weighted feature %q not present in input table", feature)
		}

		zap.L().Info("transform: processing feature",
			zap.String("feature", feature),
			zap.Float64("weight", weight),
		)

		candidates, err := Transform(feature, values)
		if err != nil {
			return nil, nil, err
		}

		if opts.Normalise {
			for _, v := range candidates.Order {
				candidates.Columns[v] = Normalize(candidates.Columns[v], weight)
			}
		}

		selection, err := SelectBest(candidates)
		if err != nil {
			return nil, nil, err
		}

		chosen := selection.Best
		outName := candidates.Feature + "_best"
		overridden := false
		if code, ok := opts.Overrides[feature]; ok {
			chosen = Variant(code)
			outName = ColumnName(feature, chosen)
			overridden = true
			if _, produced := candidates.Columns[chosen]; !produced {
				return nil, nil, eris.Wrapf(ErrTransformDomain,
					"override %q for feature %q requires strictly positive values", code, feature)
			}
			zap.L().Info("transform: using custom transformation",
				zap.String("feature", feature),
				zap.String("variant", code),
			)
		}

		chosenTable, err := model.NewFeatureTable(table.Keys(), table.Identities())
		if err != nil {
			return nil, nil, err
		}
		if err := chosenTable.AddColumn(outName, candidates.Columns[chosen]); err != nil {
			return nil, nil, err
		}

		var dropped int
		out, dropped, err = out.InnerJoin(chosenTable)
		if err != nil {
			return nil, nil, err
		}
		if dropped > 0 {
			zap.L().Warn("transform: inner join dropped local authorities",
				zap.String("feature", feature),
				zap.Int("dropped", dropped),
			)
		}

		reports = append(reports, FeatureReport{
			Feature:         feature,
			Weight:          weight,
			GreaterThanZero: candidates.GreaterThanZero,
			Normalised:      opts.Normalise,
			Scores:          selection.Scores,
			Best:            selection.Best,
			Chosen:          chosen,
			Overridden:      overridden,
		})
	}

	if out.Len() < table.Len() {
		zap.L().Warn("transform: final feature table is missing local authorities",
			zap.Int("input", table.Len()),
			zap.Int("output", out.Len()),
		)
	}

	return out, reports, nil
}

// validate rejects bad weights and unknown override codes before any work
// happens, so no partial output can be written.
func validate(opts Options) error {
	for feature, weight := range opts.Weights {
		if weight < 0 {
			return eris.Wrapf(config.ErrConfiguration, "negative weight %v for feature %q", weight, feature)
		}
	}
	for feature, code := range opts.Overrides {
		if !KnownVariant(code) {
			return eris.Wrapf(config.ErrConfiguration, "unknown transformation %q for feature %q", code, feature)
		}
	}
	return nil
}
