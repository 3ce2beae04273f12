// Package sqlite implements the memory store on a single SQLite file.
//
// Vectors are stored as little-endian float32 blobs and similarity is
// computed in process, which is fine at per-owner memory counts. The payoff
// over the in-process store is durability and cheap point lookups.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shivansh-2003/memo-go/memory"
)

var schema = []string{
	`PRAGMA journal_mode=WAL`,
	`PRAGMA busy_timeout=5000`,
	`CREATE TABLE IF NOT EXISTS memories (
		id         TEXT PRIMARY KEY,
		owner      TEXT NOT NULL,
		text       TEXT NOT NULL,
		vector     BLOB NOT NULL,
		version    INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner)`,
}

// Store is a durable memory store backed by one SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY between our own writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Put stores a new memory at version 1.
func (s *Store) Put(ctx context.Context, owner, text string, vector []float32) (memory.Memory, error) {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, owner, text, vector, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mem.ID, mem.Owner, mem.Text, encodeVector(vector), mem.Version,
		now.UnixNano(), now.UnixNano())
	if err != nil {
		return memory.Memory{}, fmt.Errorf("insert memory: %w", err)
	}
	return mem, nil
}

// Get returns the memory with the given id.
func (s *Store) Get(ctx context.Context, owner, id string) (memory.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner, text, vector, version, created_at, updated_at
		 FROM memories WHERE id = ? AND owner = ?`, id, owner)
	return scanMemory(row)
}

// Update replaces text and vector if version still matches, in a single
// conditional statement so the check and the write cannot interleave with
// another writer.
func (s *Store) Update(ctx context.Context, owner, id, text string, vector []float32, version int64) (memory.Memory, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories
		 SET text = ?, vector = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND owner = ? AND version = ?`,
		text, encodeVector(vector), now.UnixNano(), id, owner, version)
	if err != nil {
		return memory.Memory{}, fmt.Errorf("update memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return memory.Memory{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Missing row and stale version look the same here; re-read to tell
		// them apart.
		current, err := s.Get(ctx, owner, id)
		if err != nil {
			return memory.Memory{}, err
		}
		return memory.Memory{}, fmt.Errorf("%w: memory %s is at version %d, caller read %d",
			memory.ErrConflict, id, current.Version, version)
	}
	return s.Get(ctx, owner, id)
}

// Delete removes a memory.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: memory %s", memory.ErrNotFound, id)
	}
	return nil
}

// Search scans owner's memories and ranks them by cosine similarity, ties
// broken by older CreatedAt first.
func (s *Store) Search(ctx context.Context, owner string, vector []float32, k int) ([]memory.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, text, vector, version, created_at, updated_at
		 FROM memories WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var results []memory.SearchResult
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, memory.SearchResult{
			Memory: mem,
			Score:  cosineSimilarity(vector, mem.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan memories: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt.Before(results[j].Memory.CreatedAt)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of memories stored for owner.
func (s *Store) Count(ctx context.Context, owner string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE owner = ?`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (memory.Memory, error) {
	var (
		mem                  memory.Memory
		blob                 []byte
		createdAt, updatedAt int64
	)
	err := row.Scan(&mem.ID, &mem.Owner, &mem.Text, &blob, &mem.Version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Memory{}, fmt.Errorf("%w: memory", memory.ErrNotFound)
	}
	if err != nil {
		return memory.Memory{}, fmt.Errorf("scan memory: %w", err)
	}
	mem.Vector = decodeVector(blob)
	mem.CreatedAt = time.Unix(0, createdAt).UTC()
	mem.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return mem, nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// cosineSimilarity computes cosine similarity clamped to [0, 1], the same
// scale the chromem backend reports, so thresholds mean the same thing
// regardless of store.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
