package vector

import (
	"context"

	"github.com/dgraph-io/ristretto"

	"github.com/bowerhall/willow/internal/logger"
)

// ClassifyFunc maps a free-text query to a room label. Empty string
// means inconclusive and the search stays unscoped.
type ClassifyFunc func(ctx context.Context, query string) (string, error)

// TouchFunc records that a memory was recalled. The router invokes it
// off the search path, so implementations may hit the store directly.
type TouchFunc func(id int64)

// Router narrows semantic search to a room before ranking, discards
// weak matches, and fires access tracking for everything it returns.
type Router struct {
	index    Index
	embedder Embedder
	classify ClassifyFunc
	touch    TouchFunc
	minScore float64
	cache    *ristretto.Cache
}

func NewRouter(index Index, embedder Embedder, minScore float64) *Router {
	// the heartbeat re-embeds a small fixed vocabulary, so a modest
	// embedding cache saves most of those round-trips
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 22,
		BufferItems: 64,
	})
	if err != nil {
		logger.Warn("embedding cache disabled", "error", err)
		cache = nil
	}

	return &Router{
		index:    index,
		embedder: embedder,
		minScore: minScore,
		cache:    cache,
	}
}

func (r *Router) SetClassifier(fn ClassifyFunc) {
	r.classify = fn
}

func (r *Router) SetTouch(fn TouchFunc) {
	r.touch = fn
}

// Search classifies the query into a room and runs a scoped search.
// Classification failures fall back to an unscoped search.
func (r *Router) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	room := ""
	if r.classify != nil {
		label, err := r.classify(ctx, query)
		if err != nil {
			logger.Debug("room classification failed, searching unscoped", "error", err)
		} else {
			room = label
		}
	}

	return r.SearchIn(ctx, query, topK, room)
}

// SearchIn queries the index directly. room "" searches globally.
func (r *Router) SearchIn(ctx context.Context, query string, topK int, room string) ([]Match, error) {
	embedding, err := r.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := r.index.Query(ctx, embedding, topK, room)
	if err != nil {
		return nil, err
	}

	accepted := matches[:0]
	for _, m := range matches {
		if m.Score < r.minScore {
			continue
		}
		accepted = append(accepted, m)
	}

	if r.touch != nil {
		for _, m := range accepted {
			id := m.ID
			go r.touch(id)
		}
	}

	return accepted, nil
}

// Embed returns a unit-length embedding for the text, cached by text.
func (r *Router) Embed(ctx context.Context, text string) ([]float32, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(text); ok {
			return cached.([]float32), nil
		}
	}

	embedding, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	embedding = Normalize(embedding)

	if r.cache != nil {
		r.cache.Set(text, embedding, int64(len(embedding)*4))
	}

	return embedding, nil
}
