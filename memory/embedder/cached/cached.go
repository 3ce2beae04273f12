// Package cached wraps an embedder with a ristretto read-through cache.
//
// Consolidation embeds the same fact texts repeatedly when turns restate
// known facts; caching those vectors turns repeat embeddings into map hits.
package cached

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/shivansh-2003/memo-go/memory"
)

// Embedder is a caching decorator around another embedder.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New wraps inner with an in-process vector cache.
func New(inner memory.Embedder) (*Embedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     64 << 20, // 64 MiB of vectors
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, falling through to the inner
// embedder on miss. Failures are never cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vec, int64(4*len(vec)))
	return vec, nil
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Wait blocks until pending cache writes are applied. Tests use this to make
// hits deterministic.
func (e *Embedder) Wait() {
	e.cache.Wait()
}
