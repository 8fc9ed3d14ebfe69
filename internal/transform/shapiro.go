package transform

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Shapiro-Wilk normality test following Royston's 1995 approximation
// (AS R94). Valid for sample sizes 3 through 5000; within that range the
// p-values track the reference implementations to a few decimal places,
// which is far tighter than variant selection needs.

const shapiroMaxN = 5000

// ShapiroWilk returns the W statistic and its p-value for the null
// hypothesis that the sample is drawn from a normal distribution. Higher
// p-values mean more Gaussian-like.
func ShapiroWilk(sample []float64) (w, p float64, err error) {
	n := len(sample)
	if n < 3 {
		return 0, 0, eris.Wrapf(ErrDegenerateInput, "shapiro-wilk needs at least 3 values (got %d)", n)
	}
	if n > shapiroMaxN {
		return 0, 0, eris.Wrapf(ErrDegenerateInput, "shapiro-wilk supports at most %d values (got %d)", shapiroMaxN, n)
	}

	x := make([]float64, n)
	copy(x, sample)
	sort.Float64s(x)

	if x[n-1]-x[0] == 0 {
		return 0, 0, eris.Wrapf(ErrDegenerateInput, "shapiro-wilk sample has zero range")
	}

	// Expected normal order statistics (Blom scores).
	m := make([]float64, n)
	var ssqM float64
	for i := 0; i < n; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ssqM += m[i] * m[i]
	}

	a := shapiroWeights(m, ssqM, n)

	mean := stat.Mean(x, nil)
	var num, den float64
	for i := 0; i < n; i++ {
		num += a[i] * x[i]
		d := x[i] - mean
		den += d * d
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	p = shapiroPValue(w, n)
	return w, p, nil
}

// shapiroWeights computes Royston's polynomial-adjusted coefficients.
func shapiroWeights(m []float64, ssqM float64, n int) []float64 {
	a := make([]float64, n)

	if n == 3 {
		a[0] = -math.Sqrt(0.5)
		a[2] = math.Sqrt(0.5)
		return a
	}

	rsqrtM := 1 / math.Sqrt(ssqM)
	u := 1 / math.Sqrt(float64(n))

	an := -2.706056*pow5(u) + 4.434685*pow4(u) - 2.071190*u*u*u -
		0.147981*u*u + 0.221157*u + m[n-1]*rsqrtM

	if n > 5 {
		an1 := -3.582633*pow5(u) + 5.682633*pow4(u) - 1.752461*u*u*u -
			0.293762*u*u + 0.042981*u + m[n-2]*rsqrtM

		phi := (ssqM - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) /
			(1 - 2*an*an - 2*an1*an1)
		rsqrtPhi := 1 / math.Sqrt(phi)
		for i := 2; i < n-2; i++ {
			a[i] = m[i] * rsqrtPhi
		}
		a[n-1], a[n-2] = an, an1
		a[0], a[1] = -an, -an1
	} else {
		phi := (ssqM - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		rsqrtPhi := 1 / math.Sqrt(phi)
		for i := 1; i < n-1; i++ {
			a[i] = m[i] * rsqrtPhi
		}
		a[n-1] = an
		a[0] = -an
	}

	return a
}

// shapiroPValue maps W to a p-value using Royston's normalizing
// transformations, one regime per sample-size band.
func shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return clamp01(p)
	}

	lw := math.Log(1 - w)
	fn := float64(n)

	var z float64
	if n <= 11 {
		gamma := -2.273 + 0.459*fn
		mu := 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sigma := math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
		if gamma-lw <= 0 {
			return 0
		}
		z = (-math.Log(gamma-lw) - mu) / sigma
	} else {
		ln := math.Log(fn)
		mu := 0.0038915*ln*ln*ln - 0.083751*ln*ln - 0.31082*ln - 1.5861
		sigma := math.Exp(0.0030302*ln*ln - 0.082676*ln - 0.4803)
		z = (lw - mu) / sigma
	}

	return clamp01(distuv.UnitNormal.Survival(z))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func pow4(u float64) float64 { return u * u * u * u }
func pow5(u float64) float64 { return u * u * u * u * u }
