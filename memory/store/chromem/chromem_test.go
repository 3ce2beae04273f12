package chromem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivansh-2003/memo-go/memory"
	"github.com/shivansh-2003/memo-go/memory/store/chromem"
)

func newStore(t *testing.T) *chromem.Store {
	t.Helper()
	store, err := chromem.New()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	vec := []float32{1, 0, 0, 0}
	mem, err := store.Put(ctx, "user1", "User lives in Boston", vec)
	require.NoError(t, err)
	assert.NotEmpty(t, mem.ID)
	assert.Equal(t, "user1", mem.Owner)
	assert.Equal(t, int64(1), mem.Version)
	assert.False(t, mem.CreatedAt.IsZero())
	assert.Equal(t, mem.CreatedAt, mem.UpdatedAt)

	got, err := store.Get(ctx, "user1", mem.ID)
	require.NoError(t, err)
	assert.Equal(t, mem.Text, got.Text)
	assert.Equal(t, vec, got.Vector)
	assert.Equal(t, mem.Version, got.Version)
}

func TestStore_GetMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), "user1", "no-such-id")
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestStore_UpdateBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	mem, err := store.Put(ctx, "user1", "User likes coffee", []float32{0, 1, 0, 0})
	require.NoError(t, err)

	newVec := []float32{0.6, 0.8, 0, 0}
	updated, err := store.Update(ctx, "user1", mem.ID, "User likes dark roast coffee", newVec, mem.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "User likes dark roast coffee", updated.Text)
	assert.True(t, updated.CreatedAt.Equal(mem.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(mem.UpdatedAt))

	got, err := store.Get(ctx, "user1", mem.ID)
	require.NoError(t, err)
	assert.Equal(t, "User likes dark roast coffee", got.Text)
	assert.Equal(t, newVec, got.Vector)
}

func TestStore_UpdateStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	mem, err := store.Put(ctx, "user1", "fact", []float32{1, 0, 0, 0})
	require.NoError(t, err)

	_, err = store.Update(ctx, "user1", mem.ID, "fact v2", []float32{0, 1, 0, 0}, mem.Version)
	require.NoError(t, err)

	// A writer holding the old version loses.
	_, err = store.Update(ctx, "user1", mem.ID, "fact v2'", []float32{0, 0, 1, 0}, mem.Version)
	assert.ErrorIs(t, err, memory.ErrConflict)

	got, err := store.Get(ctx, "user1", mem.ID)
	require.NoError(t, err)
	assert.Equal(t, "fact v2", got.Text)
}

func TestStore_UpdateMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Update(context.Background(), "user1", "no-such-id", "x", []float32{1}, 1)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	mem, err := store.Put(ctx, "user1", "fact", []float32{1, 0, 0, 0})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "user1", mem.ID))

	_, err = store.Get(ctx, "user1", mem.ID)
	assert.ErrorIs(t, err, memory.ErrNotFound)

	// Second delete reports the id is gone.
	err = store.Delete(ctx, "user1", mem.ID)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestStore_SearchOrdering(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Put(ctx, "user1", "boston", []float32{1, 0, 0, 0})
	require.NoError(t, err)
	_, err = store.Put(ctx, "user1", "coffee", []float32{0, 1, 0, 0})
	require.NoError(t, err)
	_, err = store.Put(ctx, "user1", "near boston", []float32{0.95, 0.3122, 0, 0})
	require.NoError(t, err)

	results, err := store.Search(ctx, "user1", []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "boston", results[0].Memory.Text)
	assert.Equal(t, "near boston", results[1].Memory.Text)
	assert.Equal(t, "coffee", results[2].Memory.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestStore_SearchTieBreaksOnOlderCreated(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	vec := []float32{1, 0, 0, 0}
	older, err := store.Put(ctx, "user1", "older", vec)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = store.Put(ctx, "user1", "newer", vec)
	require.NoError(t, err)

	results, err := store.Search(ctx, "user1", vec, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, older.ID, results[0].Memory.ID)
}

func TestStore_SearchClampsK(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Put(ctx, "user1", "only one", []float32{1, 0, 0, 0})
	require.NoError(t, err)

	// Asking for more results than stored memories must not fail.
	results, err := store.Search(ctx, "user1", []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = store.Search(ctx, "empty-owner", []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	vec := []float32{1, 0, 0, 0}
	mem, err := store.Put(ctx, "alice", "alice's fact", vec)
	require.NoError(t, err)
	_, err = store.Put(ctx, "bob", "bob's fact", vec)
	require.NoError(t, err)

	results, err := store.Search(ctx, "alice", vec, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice's fact", results[0].Memory.Text)

	// Bob cannot read or delete Alice's memory.
	_, err = store.Get(ctx, "bob", mem.ID)
	assert.ErrorIs(t, err, memory.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "bob", mem.ID), memory.ErrNotFound)
}

func TestStore_Count(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	n, err := store.Count(ctx, "user1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.Put(ctx, "user1", "a", []float32{1, 0, 0, 0})
	require.NoError(t, err)
	_, err = store.Put(ctx, "user1", "b", []float32{0, 1, 0, 0})
	require.NoError(t, err)

	n, err = store.Count(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
