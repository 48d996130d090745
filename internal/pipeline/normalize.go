package pipeline

import "gonum.org/v1/gonum/floats"

// NormalizeToMax rescales values to 0-100 by dividing by the collection max.
// An empty input yields an empty result. When the max is not positive every
// value maps to 0, which also covers an all-zero collection.
func NormalizeToMax[K comparable](values map[K]float64) map[K]float64 {
	out := make(map[K]float64, len(values))
	if len(values) == 0 {
		return out
	}

	all := make([]float64, 0, len(values))
	for _, v := range values {
		all = append(all, v)
	}
	maxVal := floats.Max(all)

	for k, v := range values {
		if maxVal <= 0 {
			out[k] = 0
			continue
		}
		out[k] = v / maxVal * 100
	}
	return out
}
