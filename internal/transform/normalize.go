package transform

// Normalize linearly rescales values so the minimum maps to 0 and the
// maximum maps to weight. A zero-variance column cannot be rescaled and maps
// to all zeros: a constant feature carries no discriminative distance
// information, so dropping it to zero is safe where failing would not be.
func Normalize(values []float64, weight float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		return out
	}

	scale := weight / (max - min)
	for i, v := range values {
		out[i] = (v - min) * scale
	}
	return out
}
