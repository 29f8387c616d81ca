package vector

import (
	"context"
	"math"
)

// Metadata travels with every indexed entry so search results can be
// rendered without a second store lookup.
type Metadata struct {
	Text  string
	Title string
	Date  string
	Mood  string
	Room  string
}

// Match is a ranked search result. Score is cosine similarity in [−1, 1];
// identical text scores ≈ 1.0.
type Match struct {
	ID    int64
	Score float64
	Meta  Metadata
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the vector backend contract. Entries share their id with the
// originating memory record, so results join back 1:1. An empty room
// means the query is unscoped.
type Index interface {
	Upsert(ctx context.Context, id int64, embedding []float32, meta Metadata) error
	Query(ctx context.Context, embedding []float32, topK int, room string) ([]Match, error)
	Delete(ctx context.Context, id int64) error
}

// Normalize scales a vector to unit length. Both backends assume unit
// vectors so distance and similarity convert cleanly.
func Normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	if norm == 0 {
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v * scale
	}
	return out
}
