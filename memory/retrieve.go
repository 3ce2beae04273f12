package memory

import (
	"context"
	"fmt"

	"github.com/shivansh-2003/memo-go/pkg/log"
)

// Retriever answers read-only similarity queries over an owner's memories.
type Retriever struct {
	store    Store
	embedder Embedder
	config   *Config
}

// NewRetriever creates a retriever. A nil config uses DefaultConfig.
func NewRetriever(store Store, embedder Embedder, config *Config) *Retriever {
	if config == nil {
		config = DefaultConfig
	}
	return &Retriever{store: store, embedder: embedder, config: config}
}

// Retrieve returns up to limit memories relevant to query, ranked by
// descending similarity with Rank starting at 1. Memories scoring below the
// configured retrieval floor are dropped even when fewer than limit results
// remain; an empty result is a valid answer, not an error.
func (r *Retriever) Retrieve(ctx context.Context, owner, query string, limit int) ([]RetrievalResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: non-positive limit %d", ErrInvalidInput, limit)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch so the score floor can discard weak tail matches without
	// starving the result of qualified ones.
	matches, err := r.store.Search(ctx, owner, vector, limit*2)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}

	results := make([]RetrievalResult, 0, limit)
	for _, m := range matches {
		if m.Score < r.config.MinRetrieval {
			continue
		}
		results = append(results, RetrievalResult{
			MemoryID: m.Memory.ID,
			Text:     m.Memory.Text,
			Score:    m.Score,
			Rank:     len(results) + 1,
		})
		if len(results) == limit {
			break
		}
	}

	log.FromCtx(ctx).Debug().
		Str("owner", owner).
		Int("matches", len(matches)).
		Int("results", len(results)).
		Msg("retrieved memories")

	return results, nil
}
