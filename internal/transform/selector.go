package transform

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CandidateScore records the normality test result for one variant column.
type CandidateScore struct {
	Variant Variant
	Column  string
	PValue  float64
}

// Selection is the outcome of Gaussian selection for one feature.
type Selection struct {
	Feature string
	// Best is the variant whose distribution is closest to Gaussian.
	Best Variant
	// Scores lists every candidate's p-value in evaluation order.
	Scores []CandidateScore
}

// SelectBest runs the Shapiro-Wilk test on every candidate column and picks
// the one with the highest p-value. Exact ties keep the earlier candidate in
// evaluation order, so selection is deterministic.
func SelectBest(c *Candidates) (*Selection, error) {
	sel := &Selection{Feature: c.Feature}

	best := -1.0
	for _, v := range c.Order {
		_, p, err := ShapiroWilk(c.Columns[v])
		if err != nil {
			return nil, eris.Wrapf(err, "feature %q variant %q", c.Feature, ColumnName(c.Feature, v))
		}
		sel.Scores = append(sel.Scores, CandidateScore{
			Variant: v,
			Column:  ColumnName(c.Feature, v),
			PValue:  p,
		})
		if p > best {
			best = p
			sel.Best = v
		}
	}

	zap.L().Info("transform: selected gaussian-closest variant",
		zap.String("feature", c.Feature),
		zap.String("column", ColumnName(c.Feature, sel.Best)),
		zap.Float64("p_value", best),
	)

	return sel, nil
}
