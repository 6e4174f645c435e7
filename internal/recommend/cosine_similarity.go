package recommend

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns the cosine of the angle between a and b. Vectors of
// unequal length, zero vectors and undefined components give 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dotProduct := floats.Dot(a, b)
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)

	if normA == 0 || normB == 0 {
		return 0.0
	}

	similarity := dotProduct / (normA * normB)
	if math.IsNaN(similarity) {
		return 0.0
	}
	return similarity
}

// EuclideanDistance is the L2 distance between a and b.
func EuclideanDistance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}
