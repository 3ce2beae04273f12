package memory

import (
	"context"
	"time"
)

// Memory is the unit of stored knowledge: one atomic natural-language fact
// about an owner, together with the embedding of its text.
//
// Vector is always the embedding of Text; the two are replaced together by
// Store.Update so readers never observe a mismatched pair. Version starts at
// 1 and increments on every update, providing the optimistic concurrency
// token for Store.Update.
type Memory struct {
	ID        string
	Owner     string
	Text      string
	Vector    []float32
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// Turn is a single conversational message to extract facts from.
type Turn struct {
	ID      string
	Role    string
	Content string
}

// CandidateFact is an atomic factual statement extracted from a turn.
// It is transient: only the Consolidator decides whether it becomes a Memory.
type CandidateFact struct {
	Text         string
	SourceTurnID string
}

// SearchResult pairs a stored memory with its similarity to a query vector.
type SearchResult struct {
	Memory Memory
	Score  float64
}

// RetrievalResult is one ranked entry returned by the Retriever.
// Score is normalized similarity in [0, 1]; Rank starts at 1.
type RetrievalResult struct {
	MemoryID string
	Text     string
	Score    float64
	Rank     int
}

// Store is the vector storage backend interface.
// Implementations: chromem (embedded, in-process), sqlite (durable file).
//
// All mutating operations are durable before they return. Search never
// observes a half-applied Update: the text/vector pair is replaced
// atomically.
type Store interface {
	// Put creates a new memory for owner with version 1 and returns it.
	// It never mutates existing memories.
	Put(ctx context.Context, owner, text string, vector []float32) (Memory, error)

	// Get returns the memory with the given id, or ErrNotFound.
	Get(ctx context.Context, owner, id string) (Memory, error)

	// Update replaces text and vector of an existing memory. The caller must
	// pass the version it read; if the stored version has advanced since,
	// Update fails with ErrConflict and writes nothing.
	Update(ctx context.Context, owner, id, text string, vector []float32, version int64) (Memory, error)

	// Delete removes a memory permanently. Deleting an absent id returns
	// ErrNotFound, which callers may treat as success.
	Delete(ctx context.Context, owner, id string) error

	// Search returns up to k memories of owner ordered by descending
	// similarity to vector, ties broken by older CreatedAt first. Memories
	// of other owners are never returned.
	Search(ctx context.Context, owner string, vector []float32, k int) ([]SearchResult, error)

	// Count returns the number of memories stored for owner.
	Count(ctx context.Context, owner string) (int, error)

	// Close releases resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations: openai (API-based), onnx (local model), cached
// (ristretto decorator), mock (testing).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
