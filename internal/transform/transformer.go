// Package transform implements the feature transformation engine: candidate
// power transforms per feature, min-max weighting, Shapiro-Wilk variant
// selection, and assembly of the final feature table.
package transform

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// Sentinel errors for the failure modes of the engine.
var (
	// ErrDegenerateInput indicates a column the normality machinery cannot
	// work with: too few values, or no variation at all.
	ErrDegenerateInput = eris.New("transform: degenerate input")

	// ErrTransformDomain indicates a positivity-gated transform was requested
	// for a feature containing zero or negative values.
	ErrTransformDomain = eris.New("transform: value outside transform domain")
)

// Variant identifies one mathematical transformation of a feature column.
// The code doubles as the column-name suffix, matching the configuration
// surface ("" means the untransformed column).
type Variant string

const (
	VariantIdentity   Variant = ""
	VariantYeoJohnson Variant = "yj"
	VariantSqrt       Variant = "sqrr"
	VariantLog        Variant = "log"
	VariantSquared    Variant = "squared"
	VariantBoxCox     Variant = "bc"
	VariantRecipSqrt  Variant = "recip_sqrr"
	VariantRecip      Variant = "recip"
)

// variantOrder is the fixed evaluation order. Selection ties break on this
// order, so it is part of the engine's contract.
var variantOrder = []Variant{
	VariantIdentity,
	VariantYeoJohnson,
	VariantSqrt,
	VariantLog,
	VariantSquared,
	VariantBoxCox,
	VariantRecipSqrt,
	VariantRecip,
}

// positiveOnly marks the variants that require strictly positive input.
var positiveOnly = map[Variant]bool{
	VariantBoxCox:    true,
	VariantRecipSqrt: true,
	VariantRecip:     true,
}

// KnownVariant reports whether code names a supported transformation.
func KnownVariant(code string) bool {
	for _, v := range variantOrder {
		if string(v) == code {
			return true
		}
	}
	return false
}

// ColumnName returns the column name for a feature's variant, e.g.
// "Sparsity_log". The identity variant keeps the bare feature name.
func ColumnName(feature string, v Variant) string {
	if v == VariantIdentity {
		return feature
	}
	return fmt.Sprintf("%s_%s", feature, v)
}

// Candidates holds every transformed variant of one feature, aligned to the
// source row order.
type Candidates struct {
	Feature string
	// Order lists the produced variants in evaluation order.
	Order []Variant
	// Columns maps each produced variant to its values.
	Columns map[Variant][]float64
	// GreaterThanZero records whether the positivity-gated variants were
	// produced. Reporting uses it to explain missing variants.
	GreaterThanZero bool
}

// Column returns the values for one produced variant.
func (c *Candidates) Column(v Variant) ([]float64, bool) {
	vals, ok := c.Columns[v]
	return vals, ok
}

// Transform produces every candidate variant of the feature column. The
// positivity-gated variants (Box-Cox, reciprocal square root, reciprocal) are
// only produced when every value is strictly greater than zero.
//
// Columns the downstream normality test cannot handle, i.e. fewer than three
// values or no variation, fail here rather than producing NaN candidates.
func Transform(feature string, values []float64) (*Candidates, error) {
	if len(values) < 3 {
		return nil, eris.Wrapf(ErrDegenerateInput, "feature %q has %d values, need at least 3", feature, len(values))
	}
	if isConstant(values) {
		return nil, eris.Wrapf(ErrDegenerateInput, "feature %q is constant (%v)", feature, values[0])
	}

	n := len(values)
	greaterThanZero := minOf(values) > 0

	c := &Candidates{
		Feature:         feature,
		Columns:         make(map[Variant][]float64),
		GreaterThanZero: greaterThanZero,
	}

	identity := make([]float64, n)
	copy(identity, values)
	c.add(VariantIdentity, identity)

	yjLambda := yeoJohnsonLambda(values)
	c.add(VariantYeoJohnson, yeoJohnson(values, yjLambda))

	sqrt := make([]float64, n)
	sq := make([]float64, n)
	log := make([]float64, n)
	for i, v := range values {
		sqrt[i] = math.Sqrt(v)
		log[i] = math.Log1p(v)
		sq[i] = v * v
	}
	c.add(VariantSqrt, sqrt)
	c.add(VariantLog, log)
	c.add(VariantSquared, sq)

	if greaterThanZero {
		bcLambda := boxCoxLambda(values)
		c.add(VariantBoxCox, boxCox(values, bcLambda))

		recipSqrt := make([]float64, n)
		recip := make([]float64, n)
		for i, v := range values {
			recipSqrt[i] = 1 / math.Sqrt(v)
			recip[i] = 1 / v
		}
		c.add(VariantRecipSqrt, recipSqrt)
		c.add(VariantRecip, recip)
	}

	return c, nil
}

func (c *Candidates) add(v Variant, values []float64) {
	c.Order = append(c.Order, v)
	c.Columns[v] = values
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func minOf(values []float64) float64 {
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
