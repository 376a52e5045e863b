// Package vecmath holds the numeric helpers used for similarity ranking.
package vecmath

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
//
// The caller must pass vectors of equal length; extra elements of the longer
// vector are ignored. A zero vector on either side yields 0.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	// Rounding can push identical vectors marginally past 1.
	return math.Max(-1, math.Min(1, sim))
}
