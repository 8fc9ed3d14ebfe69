package transform

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Power transforms with maximum-likelihood shape estimation. The lambda
// search maximizes the profile log-likelihood by golden-section search over
// a bounded interval, which is ample for census-style indicators.

const (
	lambdaLo  = -5
	lambdaHi  = 5
	lambdaTol = 1e-8
)

// yeoJohnson applies the Yeo-Johnson transform, which is defined for values
// of any sign.
func yeoJohnson(values []float64, lambda float64) []float64 {
	out := make([]float64, len(values))
	for i, x := range values {
		switch {
		case x >= 0 && lambda != 0:
			out[i] = (math.Pow(x+1, lambda) - 1) / lambda
		case x >= 0:
			out[i] = math.Log1p(x)
		case lambda != 2:
			out[i] = -(math.Pow(-x+1, 2-lambda) - 1) / (2 - lambda)
		default:
			out[i] = -math.Log1p(-x)
		}
	}
	return out
}

// yeoJohnsonLambda estimates the Yeo-Johnson shape parameter by MLE.
func yeoJohnsonLambda(values []float64) float64 {
	n := float64(len(values))

	// The second likelihood term does not depend on lambda.
	var shift float64
	for _, x := range values {
		if x >= 0 {
			shift += math.Log1p(x)
		} else {
			shift -= math.Log1p(-x)
		}
	}

	llf := func(lambda float64) float64 {
		y := yeoJohnson(values, lambda)
		v := biasedVariance(y)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(-1)
		}
		return -n/2*math.Log(v) + (lambda-1)*shift
	}

	return maximize(llf, lambdaLo, lambdaHi)
}

// boxCox applies the Box-Cox transform. Input must be strictly positive;
// callers gate on positivity before reaching here.
func boxCox(values []float64, lambda float64) []float64 {
	out := make([]float64, len(values))
	for i, x := range values {
		if lambda != 0 {
			out[i] = (math.Pow(x, lambda) - 1) / lambda
		} else {
			out[i] = math.Log(x)
		}
	}
	return out
}

// boxCoxLambda estimates the Box-Cox shape parameter by MLE.
func boxCoxLambda(values []float64) float64 {
	n := float64(len(values))

	var logSum float64
	for _, x := range values {
		logSum += math.Log(x)
	}

	llf := func(lambda float64) float64 {
		y := boxCox(values, lambda)
		v := biasedVariance(y)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(-1)
		}
		return -n/2*math.Log(v) + (lambda-1)*logSum
	}

	return maximize(llf, lambdaLo, lambdaHi)
}

// biasedVariance is the MLE variance (divisor n, not n-1), matching the
// likelihood the lambda estimate maximizes.
func biasedVariance(values []float64) float64 {
	n := float64(len(values))
	mean := stat.Mean(values, nil)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss / n
}

// maximize runs a golden-section search for the maximum of f on [lo, hi].
// The profile likelihoods above are unimodal in lambda on any interval of
// practical interest.
func maximize(f func(float64) float64, lo, hi float64) float64 {
	invPhi := (math.Sqrt(5) - 1) / 2

	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)

	for b-a > lambdaTol {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}

	return (a + b) / 2
}
