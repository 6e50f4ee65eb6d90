package core

import (
	"fmt"
	"math"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// The result lies in [-1, 1]. A zero-magnitude vector has similarity 0 with
// everything. Vectors of different lengths yield ErrDimensionMismatch.
func CosineSimilarity(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	// Rounding can push parallel vectors slightly past the bounds.
	return max(-1, min(1, sim)), nil
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v Vector) Vector {
	if len(v) == 0 {
		return v
	}

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	result := make(Vector, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}
