package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shivansh-2003/memo-go/memory"
	"github.com/shivansh-2003/memo-go/memory/embedder/mock"
	"github.com/shivansh-2003/memo-go/memory/llm"
	"github.com/shivansh-2003/memo-go/memory/store/chromem"
)

// fakeGateway scripts language-model behavior for tests.
type fakeGateway struct {
	facts         map[string][]string
	relations     map[string]llm.Relation
	extractErr    error
	classifyErr   error
	completeErr   error
	answer        string
	lastPrompt    string
	extractCalls  int
	classifyCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		facts:     make(map[string][]string),
		relations: make(map[string]llm.Relation),
	}
}

func (g *fakeGateway) ExtractFacts(ctx context.Context, turn string) ([]string, error) {
	g.extractCalls++
	if g.extractErr != nil {
		return nil, g.extractErr
	}
	return g.facts[turn], nil
}

func (g *fakeGateway) Classify(ctx context.Context, existing, candidate string) (llm.Relation, error) {
	g.classifyCalls++
	if g.classifyErr != nil {
		return "", g.classifyErr
	}
	if rel, ok := g.relations[existing+"|"+candidate]; ok {
		return rel, nil
	}
	return llm.RelationUnrelated, nil
}

func (g *fakeGateway) Complete(ctx context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	if g.completeErr != nil {
		return "", g.completeErr
	}
	return g.answer, nil
}

func newTestStore(t *testing.T) memory.Store {
	t.Helper()
	store, err := chromem.New()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestManager_RecordThenAnswer(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	embedder := mock.NewWithDimensions(4)
	embedder.Fix("User lives in Boston", []float32{1, 0, 0, 0})
	embedder.Fix("User lives in Austin", []float32{0.95, 0.3122, 0, 0})
	embedder.Fix("Where does the user live?", []float32{0.97, 0.2, 0, 0})

	gateway := newFakeGateway()
	gateway.facts["user: I just moved to Boston"] = []string{"User lives in Boston"}
	gateway.facts["user: Actually I moved to Austin last month"] = []string{"User lives in Austin"}
	gateway.relations["User lives in Boston|User lives in Austin"] = llm.RelationContradicts
	gateway.answer = "You live in Austin."

	manager := memory.NewManager(store, embedder, gateway, nil)

	results, err := manager.Record(ctx, "user1", memory.Turn{
		ID: "t1", Role: "user", Content: "I just moved to Boston",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Equal(t, memory.OpAdd, results[0].Decision.Op)

	results, err = manager.Record(ctx, "user1", memory.Turn{
		ID: "t2", Role: "user", Content: "Actually I moved to Austin last month",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Equal(t, memory.OpReplace, results[0].Decision.Op)
	require.NotEmpty(t, results[0].Decision.Stale)

	// The contradicted fact is gone; only Austin remains.
	n, err := store.Count(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	answer, err := manager.Answer(ctx, "user1", "Where does the user live?")
	require.NoError(t, err)
	require.Equal(t, "You live in Austin.", answer)
	require.Contains(t, gateway.lastPrompt, "User lives in Austin")
	require.NotContains(t, gateway.lastPrompt, "User lives in Boston")
}

func TestManager_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	embedder := mock.NewWithDimensions(4)
	embedder.Fix("User likes tea", []float32{0, 1, 0, 0})
	embedder.Fix("What does the user drink?", []float32{0, 1, 0, 0})

	gateway := newFakeGateway()
	gateway.facts["tea please"] = []string{"User likes tea"}
	gateway.answer = "ok"

	manager := memory.NewManager(store, embedder, gateway, nil)

	_, err := manager.Record(ctx, "alice", memory.Turn{ID: "t1", Content: "tea please"})
	require.NoError(t, err)

	// Bob's question must not surface Alice's memory.
	_, err = manager.Answer(ctx, "bob", "What does the user drink?")
	require.NoError(t, err)
	require.NotContains(t, gateway.lastPrompt, "User likes tea")

	_, err = manager.Answer(ctx, "alice", "What does the user drink?")
	require.NoError(t, err)
	require.Contains(t, gateway.lastPrompt, "User likes tea")
}

func TestManager_RecordExtractionFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	gateway := newFakeGateway()
	gateway.extractErr = fmt.Errorf("model down")

	manager := memory.NewManager(store, mock.NewWithDimensions(4), gateway, nil)

	_, err := manager.Record(ctx, "user1", memory.Turn{ID: "t1", Content: "hello"})
	require.Error(t, err)

	// Nothing was written.
	n, err := store.Count(ctx, "user1")
	require.NoError(t, err)
	require.Zero(t, n)
}
