package cached_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivansh-2003/memo-go/memory"
	"github.com/shivansh-2003/memo-go/memory/embedder/cached"
	"github.com/shivansh-2003/memo-go/memory/embedder/mock"
)

type countingEmbedder struct {
	memory.Embedder
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.Embedder.Embed(ctx, text)
}

func TestCached_SecondEmbedHitsCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{Embedder: mock.New()}
	embedder, err := cached.New(inner)
	require.NoError(t, err)

	first, err := embedder.Embed(ctx, "User lives in Boston")
	require.NoError(t, err)
	embedder.Wait()

	second, err := embedder.Embed(ctx, "User lives in Boston")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCached_DistinctTextsMiss(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{Embedder: mock.New()}
	embedder, err := cached.New(inner)
	require.NoError(t, err)

	_, err = embedder.Embed(ctx, "one")
	require.NoError(t, err)
	_, err = embedder.Embed(ctx, "two")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCached_DimensionsPassthrough(t *testing.T) {
	embedder, err := cached.New(mock.NewWithDimensions(42))
	require.NoError(t, err)
	assert.Equal(t, 42, embedder.Dimensions())
}
