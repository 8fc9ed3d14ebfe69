// Package distance computes pairwise distances between local authorities in
// transformed feature space and derives ranked peer lists.
package distance

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/localgov-analytics/peers-cli/internal/config"
)

// Metric measures the distance between two feature vectors of equal length.
type Metric func(a, b []float64) float64

var metrics = map[string]Metric{
	"euclidean":   Euclidean,
	"sqeuclidean": SqEuclidean,
	"manhattan":   Manhattan,
	"chebyshev":   Chebyshev,
}

// ByName resolves a metric by its configuration name.
func ByName(name string) (Metric, error) {
	m, ok := metrics[name]
	if !ok {
		return nil, eris.Wrapf(config.ErrConfiguration, "unknown distance metric %q (known: %v)", name, MetricNames())
	}
	return m, nil
}

// MetricNames lists the supported metric names in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Euclidean is the L2 distance, the default metric.
func Euclidean(a, b []float64) float64 {
	return math.Sqrt(SqEuclidean(a, b))
}

// SqEuclidean is the squared L2 distance.
func SqEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Manhattan is the L1 distance.
func Manhattan(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Chebyshev is the L-infinity distance.
func Chebyshev(a, b []float64) float64 {
	var max float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > max {
			max = d
		}
	}
	return max
}
