// Package similarity implements the vector similarity engine used for both
// audio-to-audio and room-to-room comparison: cosine similarity, pairwise
// similarity matrices and deterministic reconstruction of comparison
// vectors from sparse stored features.
package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/soundrooms/resonance/internal/logging"
)

// FallbackSimilarity is the flat off-diagonal value used when matrix
// computation fails internally
const FallbackSimilarity = 0.3

// Cosine computes cosine similarity in [-1, 1]. Mismatched lengths or a
// zero-magnitude operand are similarity-undefined and yield 0.0 rather
// than an error.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	dot := floats.Dot(a, b)
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (normA * normB)
}

// StrictCosine is the strict comparison entry point: mismatched vector
// lengths are a caller bug and are rejected instead of coerced to 0.
func StrictCosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}
	return Cosine(a, b), nil
}

// Matrix computes the NxN pairwise similarity matrix. The diagonal is
// forced to 1.0 (self is maximally similar by definition) and off-diagonal
// values are symmetric. Internal failure degrades to a flat fallback
// matrix instead of failing the caller.
func Matrix(vectors [][]float64) (matrix [][]float64) {
	n := len(vectors)

	defer func() {
		if r := recover(); r != nil {
			logging.WithFields(logging.Fields{
				"component": "similarity_engine",
			}).Error("similarity matrix computation failed", logging.Fields{
				"panic":   r,
				"vectors": n,
			})
			matrix = FallbackMatrix(n)
		}
	}()

	matrix = make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := Cosine(vectors[i], vectors[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}

	return matrix
}

// FallbackMatrix returns the degraded matrix: identity diagonal with a
// flat constant elsewhere
func FallbackMatrix(n int) [][]float64 {
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i == j {
				matrix[i][j] = 1.0
			} else {
				matrix[i][j] = FallbackSimilarity
			}
		}
	}
	return matrix
}
