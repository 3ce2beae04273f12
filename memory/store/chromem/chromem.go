// Package chromem implements the memory store on chromem-go, a pure Go
// embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/shivansh-2003/memo-go/memory"
)

// Store keeps one chromem collection per owner for namespace isolation.
//
// opMu serializes mutations against searches so an Update, which chromem can
// only express as delete plus re-add, is never observed half-applied.
type Store struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
	opMu        sync.RWMutex
}

// New creates an in-memory store.
func New() (*Store, error) {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// NewPersistent creates a store that persists collections under path.
func NewPersistent(path string) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &Store{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (s *Store) getOrCreateCollection(owner string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[owner]
	s.mu.RUnlock()

	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if col, exists := s.collections[owner]; exists {
		return col, nil
	}

	name := "owner_" + owner
	if owner == "" {
		name = "global"
	}

	// nil embedding func: callers always provide vectors themselves.
	col, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.collections[owner] = col
	return col, nil
}

// Put stores a new memory at version 1.
func (s *Store) Put(ctx context.Context, owner, text string, vector []float32) (memory.Memory, error) {
	col, err := s.getOrCreateCollection(owner)
	if err != nil {
		return memory.Memory{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	now := time.Now().UTC()
	mem := memory.Memory{
		ID:        uuid.New().String(),
		Owner:     owner,
		Text:      text,
		Vector:    vector,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	if err := col.AddDocument(ctx, toDocument(mem)); err != nil {
		return memory.Memory{}, fmt.Errorf("add document: %w", err)
	}
	return mem, nil
}

// Get returns the memory with the given id.
func (s *Store) Get(ctx context.Context, owner, id string) (memory.Memory, error) {
	col, err := s.getOrCreateCollection(owner)
	if err != nil {
		return memory.Memory{}, err
	}

	s.opMu.RLock()
	defer s.opMu.RUnlock()

	doc, err := col.GetByID(ctx, id)
	if err != nil {
		return memory.Memory{}, fmt.Errorf("%w: memory %s", memory.ErrNotFound, id)
	}
	return fromDocument(owner, doc)
}

// Update replaces text and vector if version still matches. chromem has no
// in-place update, so this deletes and re-adds under the write lock.
func (s *Store) Update(ctx context.Context, owner, id, text string, vector []float32, version int64) (memory.Memory, error) {
	col, err := s.getOrCreateCollection(owner)
	if err != nil {
		return memory.Memory{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	doc, err := col.GetByID(ctx, id)
	if err != nil {
		return memory.Memory{}, fmt.Errorf("%w: memory %s", memory.ErrNotFound, id)
	}
	current, err := fromDocument(owner, doc)
	if err != nil {
		return memory.Memory{}, err
	}
	if current.Version != version {
		return memory.Memory{}, fmt.Errorf("%w: memory %s is at version %d, caller read %d",
			memory.ErrConflict, id, current.Version, version)
	}

	updated := current
	updated.Text = text
	updated.Vector = vector
	updated.UpdatedAt = time.Now().UTC()
	updated.Version = version + 1

	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return memory.Memory{}, fmt.Errorf("delete document: %w", err)
	}
	if err := col.AddDocument(ctx, toDocument(updated)); err != nil {
		return memory.Memory{}, fmt.Errorf("re-add document: %w", err)
	}
	return updated, nil
}

// Delete removes a memory.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	col, err := s.getOrCreateCollection(owner)
	if err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := col.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%w: memory %s", memory.ErrNotFound, id)
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Search returns up to k memories ordered by descending similarity, ties
// broken by older CreatedAt first.
func (s *Store) Search(ctx context.Context, owner string, vector []float32, k int) ([]memory.SearchResult, error) {
	col, err := s.getOrCreateCollection(owner)
	if err != nil {
		return nil, err
	}

	s.opMu.RLock()
	defer s.opMu.RUnlock()

	// chromem requires nResults <= collection size
	if n := col.Count(); k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	raw, err := col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	results := make([]memory.SearchResult, 0, len(raw))
	for _, r := range raw {
		mem, err := fromResult(owner, r)
		if err != nil {
			continue
		}
		score := float64(r.Similarity)
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		results = append(results, memory.SearchResult{Memory: mem, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt.Before(results[j].Memory.CreatedAt)
	})
	return results, nil
}

// Count returns the number of memories stored for owner.
func (s *Store) Count(ctx context.Context, owner string) (int, error) {
	col, err := s.getOrCreateCollection(owner)
	if err != nil {
		return 0, err
	}

	s.opMu.RLock()
	defer s.opMu.RUnlock()
	return col.Count(), nil
}

// Close releases resources. chromem keeps everything in process memory (and
// on disk for persistent DBs), so there is nothing to tear down.
func (s *Store) Close() error {
	return nil
}

func toDocument(mem memory.Memory) chromem.Document {
	return chromem.Document{
		ID:        mem.ID,
		Content:   mem.Text,
		Embedding: mem.Vector,
		Metadata: map[string]string{
			"owner":      mem.Owner,
			"created_at": mem.CreatedAt.Format(time.RFC3339Nano),
			"updated_at": mem.UpdatedAt.Format(time.RFC3339Nano),
			"version":    strconv.FormatInt(mem.Version, 10),
		},
	}
}

func fromDocument(owner string, doc chromem.Document) (memory.Memory, error) {
	return fromFields(owner, doc.ID, doc.Content, doc.Embedding, doc.Metadata)
}

func fromResult(owner string, r chromem.Result) (memory.Memory, error) {
	return fromFields(owner, r.ID, r.Content, r.Embedding, r.Metadata)
}

func fromFields(owner, id, text string, embedding []float32, metadata map[string]string) (memory.Memory, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, metadata["created_at"])
	if err != nil {
		return memory.Memory{}, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, metadata["updated_at"])
	if err != nil {
		return memory.Memory{}, fmt.Errorf("parse updated_at: %w", err)
	}
	version, err := strconv.ParseInt(metadata["version"], 10, 64)
	if err != nil {
		return memory.Memory{}, fmt.Errorf("parse version: %w", err)
	}
	return memory.Memory{
		ID:        id,
		Owner:     owner,
		Text:      text,
		Vector:    embedding,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Version:   version,
	}, nil
}
