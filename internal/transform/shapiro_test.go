package transform

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalScores returns n exact normal quantiles, the most Gaussian-looking
// sample of size n there is.
func normalScores(n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / float64(n))
	}
	return out
}

func TestShapiroWilk_NormalSampleHighP(t *testing.T) {
	w, p, err := ShapiroWilk(normalScores(50))
	require.NoError(t, err)
	assert.Greater(t, w, 0.98)
	assert.Greater(t, p, 0.5)
}

func TestShapiroWilk_LognormalSampleLowP(t *testing.T) {
	scores := normalScores(50)
	sample := make([]float64, len(scores))
	for i, v := range scores {
		sample[i] = math.Exp(2 * v)
	}

	w, p, err := ShapiroWilk(sample)
	require.NoError(t, err)
	assert.Less(t, w, 0.8)
	assert.Less(t, p, 0.01)
}

func TestShapiroWilk_SmallSampleBand(t *testing.T) {
	// n in [4,11] uses a separate normalizing transformation.
	_, p, err := ShapiroWilk([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)

	_, p, err = ShapiroWilk([]float64{1, 1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 100})
	require.NoError(t, err)
	assert.Less(t, p, 0.01)
}

func TestShapiroWilk_NEquals3(t *testing.T) {
	w, p, err := ShapiroWilk([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w, 1e-9)
	assert.InDelta(t, 1.0, p, 1e-6)
}

func TestShapiroWilk_ScaleAndShiftInvariant(t *testing.T) {
	base := normalScores(30)
	shifted := make([]float64, len(base))
	for i, v := range base {
		shifted[i] = 1000 + 42*v
	}

	w1, p1, err := ShapiroWilk(base)
	require.NoError(t, err)
	w2, p2, err := ShapiroWilk(shifted)
	require.NoError(t, err)

	assert.InDelta(t, w1, w2, 1e-9)
	assert.InDelta(t, p1, p2, 1e-9)
}

func TestShapiroWilk_TooFewValues(t *testing.T) {
	_, _, err := ShapiroWilk([]float64{1, 2})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDegenerateInput))
}

func TestShapiroWilk_ConstantSample(t *testing.T) {
	_, _, err := ShapiroWilk([]float64{5, 5, 5, 5, 5})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDegenerateInput))
}

func TestShapiroWilk_TooManyValues(t *testing.T) {
	sample := make([]float64, shapiroMaxN+1)
	for i := range sample {
		sample[i] = float64(i)
	}
	_, _, err := ShapiroWilk(sample)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDegenerateInput))
}
