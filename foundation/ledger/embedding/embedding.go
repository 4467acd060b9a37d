// Package embedding produces deterministic feature vectors for memory
// content and measures their similarity. The vectors are a cheap
// character-bucket hash, not a trained model. They exist so similarity
// search has a stable, reproducible signal.
package embedding

import "math"

// Dimensions is the fixed length of every generated vector.
const Dimensions = 128

// Generate maps the content into a Dimensions length vector. Each of the
// first Dimensions characters adds its code point scaled by 255 into
// bucket i mod Dimensions, then the vector is L2 normalized. Identical
// content always produces an identical vector.
func Generate(content string) []float64 {
	vector := make([]float64, Dimensions)

	var i int
	for _, r := range content {
		if i == Dimensions {
			break
		}
		vector[i%Dimensions] += float64(r) / 255.0
		i++
	}

	return Normalize(vector)
}

// Normalize scales the vector to unit length. A zero vector is returned
// unchanged since it has no direction to preserve.
func Normalize(vector []float64) []float64 {
	norm := l2Norm(vector)
	if norm == 0 {
		return vector
	}

	for i := range vector {
		vector[i] /= norm
	}

	return vector
}

// Cosine returns the cosine similarity between the two vectors. It
// returns 0 when either vector has zero norm.
func Cosine(a []float64, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}

	normA := l2Norm(a)
	normB := l2Norm(b)

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * normB)
}

// Mean returns the componentwise mean of the vectors. All vectors must
// share the same length; nil is returned when the input is empty.
func Mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}

	mean := make([]float64, len(vectors[0]))
	for _, vector := range vectors {
		for i := range vector {
			mean[i] += vector[i]
		}
	}

	for i := range mean {
		mean[i] /= float64(len(vectors))
	}

	return mean
}

func l2Norm(vector []float64) float64 {
	var sum float64
	for _, v := range vector {
		sum += v * v
	}

	return math.Sqrt(sum)
}
