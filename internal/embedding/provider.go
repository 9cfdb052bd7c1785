// Package embedding provides text embedding clients and vector similarity
// helpers for the dedup engine.
package embedding

import (
	"context"
	"math"
)

// Provider maps a batch of texts to fixed-size vectors in a single call.
// Implementations must return one vector per input text, index-aligned.
type Provider interface {
	// EmbedBatch embeds all texts in one request. Per-text round trips are
	// deliberately not part of the interface: the dedup engine embeds a whole
	// candidate batch at once to bound latency.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector length produced by this provider.
	Dimensions() int
}

// CosineSimilarity computes the cosine similarity between two float32 vectors.
// Returns a value in [-1, 1], where 1 means identical direction. Mismatched
// or zero-length inputs yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dotProduct += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
