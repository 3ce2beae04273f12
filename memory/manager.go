package memory

import (
	"context"

	"github.com/shivansh-2003/memo-go/memory/llm"
)

// Manager is the top-level entry point tying extraction, consolidation, and
// composition together behind two calls: Record for writes, Answer for reads.
type Manager struct {
	extractor    *Extractor
	consolidator *Consolidator
	composer     *Composer
}

// NewManager wires the full pipeline over a store, an embedder, and a
// language-model gateway. A nil config uses DefaultConfig.
func NewManager(store Store, embedder Embedder, gateway llm.Gateway, config *Config) *Manager {
	if config == nil {
		config = DefaultConfig
	}
	retriever := NewRetriever(store, embedder, config)
	return &Manager{
		extractor:    NewExtractor(gateway),
		consolidator: NewConsolidator(store, embedder, gateway, config),
		composer:     NewComposer(retriever, gateway, config),
	}
}

// Record extracts facts from turn and consolidates them into owner's
// memories. The returned results describe what happened to each fact;
// per-fact failures are reported there rather than failing the whole turn.
func (m *Manager) Record(ctx context.Context, owner string, turn Turn) ([]Result, error) {
	facts, err := m.extractor.Extract(ctx, turn)
	if err != nil {
		return nil, err
	}
	return m.consolidator.Consolidate(ctx, owner, facts), nil
}

// Answer replies to query grounded in owner's stored memories.
func (m *Manager) Answer(ctx context.Context, owner, query string) (string, error) {
	return m.composer.Compose(ctx, owner, query)
}
