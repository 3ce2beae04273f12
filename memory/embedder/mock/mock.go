// Package mock provides a deterministic embedder for tests.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates deterministic embeddings from a text hash, so the same
// text always embeds to the same unit vector. Specific texts can be pinned to
// hand-crafted vectors with Fix, which lets tests script exact similarity
// scores between facts.
type Embedder struct {
	dimensions int
	fixtures   map[string][]float32
}

// New creates a mock embedder with 384 dimensions, matching
// all-MiniLM-L6-v2.
func New() *Embedder {
	return NewWithDimensions(384)
}

// NewWithDimensions creates a mock embedder with the given vector size.
func NewWithDimensions(dimensions int) *Embedder {
	return &Embedder{
		dimensions: dimensions,
		fixtures:   make(map[string][]float32),
	}
}

// Fix pins text to vec, bypassing hash-based generation. Not safe for
// concurrent use with Embed; call during test setup.
func (m *Embedder) Fix(text string, vec []float32) {
	m.fixtures[text] = normalize(vec)
}

// Embed creates a deterministic embedding from text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := m.fixtures[text]; ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		// Simple LCG seeded by the text hash
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}
