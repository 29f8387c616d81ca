package embedder

import (
	"context"
	"hash/fnv"
	"math"
)

// Mock generates deterministic hash-based embeddings. Identical text
// always embeds identically, which is what the round-trip tests need.
type Mock struct {
	dimensions int
}

func NewMock(dimensions int) *Mock {
	return &Mock{dimensions: dimensions}
}

func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	var norm float64
	for i := range embedding {
		seed = seed*6364136223846793005 + 1442695040888963407
		val := float32(int64(seed)) / float32(math.MaxInt64)
		embedding[i] = val
		norm += float64(val) * float64(val)
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range embedding {
		embedding[i] *= scale
	}

	return embedding, nil
}
