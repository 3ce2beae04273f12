package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shivansh-2003/memo-go/memory/llm"
	"github.com/shivansh-2003/memo-go/pkg/log"
)

// Op is the action the consolidator took for one candidate fact.
type Op int

const (
	// OpAdd stored the fact as a new memory.
	OpAdd Op = iota

	// OpNoop discarded the fact as a duplicate of an existing memory.
	OpNoop

	// OpUpdate rewrote an existing memory with the fact's text.
	OpUpdate

	// OpReplace deleted a contradicted memory and stored the fact in its place.
	OpReplace

	// OpSkip discarded the fact because the owner is at capacity.
	OpSkip
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpNoop:
		return "noop"
	case OpUpdate:
		return "update"
	case OpReplace:
		return "replace"
	case OpSkip:
		return "skip"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Decision records what the consolidator did with one fact. Memory is the
// affected memory: the one created for OpAdd and OpReplace, the rewritten one
// for OpUpdate, the surviving duplicate for OpNoop, and zero for OpSkip.
// Stale is the ID of the deleted memory when Op is OpReplace.
type Decision struct {
	Op     Op
	Memory Memory
	Stale  string
}

// Result pairs a candidate fact with its decision, or with the error that
// prevented one. Exactly one of Decision and Err is meaningful.
type Result struct {
	Fact     CandidateFact
	Decision Decision
	Err      error
}

// Consolidator merges candidate facts into an owner's memory set, keeping it
// free of duplicates and contradictions.
//
// Each fact is resolved independently: a failure on one fact never blocks the
// rest of the batch. Writes use the store's optimistic version check and are
// retried once on conflict with a fresh read; a second conflict is surfaced.
type Consolidator struct {
	store    Store
	embedder Embedder
	gateway  llm.Gateway
	config   *Config
}

// NewConsolidator creates a consolidator. A nil config uses DefaultConfig.
func NewConsolidator(store Store, embedder Embedder, gateway llm.Gateway, config *Config) *Consolidator {
	if config == nil {
		config = DefaultConfig
	}
	return &Consolidator{
		store:    store,
		embedder: embedder,
		gateway:  gateway,
		config:   config,
	}
}

// Consolidate resolves each fact against owner's stored memories and applies
// the outcome. Results are returned in input order, one per fact.
func (c *Consolidator) Consolidate(ctx context.Context, owner string, facts []CandidateFact) []Result {
	results := make([]Result, 0, len(facts))
	for _, fact := range facts {
		decision, err := c.consolidateOne(ctx, owner, fact)
		if err != nil {
			log.FromCtx(ctx).Warn().
				Err(err).
				Str("owner", owner).
				Str("fact", fact.Text).
				Msg("consolidation failed for fact")
			results = append(results, Result{Fact: fact, Err: err})
			continue
		}
		results = append(results, Result{Fact: fact, Decision: decision})
	}
	return results
}

func (c *Consolidator) consolidateOne(ctx context.Context, owner string, fact CandidateFact) (Decision, error) {
	if fact.Text == "" {
		return Decision{}, fmt.Errorf("%w: empty fact", ErrInvalidInput)
	}

	vector, err := c.embedder.Embed(ctx, fact.Text)
	if err != nil {
		return Decision{}, fmt.Errorf("embed fact: %w", err)
	}

	// One retry on version conflict, with a fresh search and classification.
	// The store stays consistent either way; only this fact is re-decided.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		decision, err := c.decideAndApply(ctx, owner, fact, vector)
		if err == nil {
			return decision, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Decision{}, err
		}
		lastErr = err
		log.FromCtx(ctx).Debug().
			Str("owner", owner).
			Str("fact", fact.Text).
			Msg("version conflict, re-deciding")
	}
	return Decision{}, fmt.Errorf("consolidation retry exhausted: %w", lastErr)
}

func (c *Consolidator) decideAndApply(ctx context.Context, owner string, fact CandidateFact, vector []float32) (Decision, error) {
	matches, err := c.store.Search(ctx, owner, vector, c.config.SearchK)
	if err != nil {
		return Decision{}, fmt.Errorf("search memories: %w", err)
	}

	best, found := bestMatch(matches)
	if !found || best.Score < c.config.RelatedThreshold {
		return c.add(ctx, owner, fact, vector)
	}

	relation, err := c.gateway.Classify(ctx, best.Memory.Text, fact.Text)
	if err != nil {
		return Decision{}, fmt.Errorf("classify fact: %w", err)
	}

	logger := log.FromCtx(ctx)
	switch {
	case relation == llm.RelationEquivalent:
		logger.Debug().
			Str("owner", owner).
			Str("memory_id", best.Memory.ID).
			Msg("duplicate fact, keeping existing memory")
		return Decision{Op: OpNoop, Memory: best.Memory}, nil

	case relation == llm.RelationContradicts:
		// Delete first so a crash between the two writes leaves the memory
		// set without a contradictory pair. An ErrNotFound here means a
		// concurrent consolidator already removed the stale memory.
		if err := c.store.Delete(ctx, owner, best.Memory.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return Decision{}, fmt.Errorf("delete contradicted memory: %w", err)
		}
		decision, err := c.add(ctx, owner, fact, vector)
		if err != nil {
			return Decision{}, err
		}
		if decision.Op == OpAdd {
			decision.Op = OpReplace
			decision.Stale = best.Memory.ID
		}
		logger.Info().
			Str("owner", owner).
			Str("stale_id", best.Memory.ID).
			Str("memory_id", decision.Memory.ID).
			Msg("replaced contradicted memory")
		return decision, nil

	case relation == llm.RelationRefines, best.Score >= c.config.DupThreshold:
		// Near-duplicates that are neither equivalent nor contradictory are
		// folded into the existing memory rather than stored alongside it.
		updated, err := c.store.Update(ctx, owner, best.Memory.ID, fact.Text, vector, best.Memory.Version)
		if err != nil {
			return Decision{}, fmt.Errorf("update memory: %w", err)
		}
		logger.Debug().
			Str("owner", owner).
			Str("memory_id", updated.ID).
			Int64("version", updated.Version).
			Msg("refined existing memory")
		return Decision{Op: OpUpdate, Memory: updated}, nil

	default:
		return c.add(ctx, owner, fact, vector)
	}
}

func (c *Consolidator) add(ctx context.Context, owner string, fact CandidateFact, vector []float32) (Decision, error) {
	if c.config.MaxMemoriesPerOwner > 0 {
		n, err := c.store.Count(ctx, owner)
		if err != nil {
			return Decision{}, fmt.Errorf("count memories: %w", err)
		}
		if n >= c.config.MaxMemoriesPerOwner {
			log.FromCtx(ctx).Warn().
				Str("owner", owner).
				Int("count", n).
				Msg("owner at memory capacity, skipping fact")
			return Decision{Op: OpSkip}, nil
		}
	}

	created, err := c.store.Put(ctx, owner, fact.Text, vector)
	if err != nil {
		return Decision{}, fmt.Errorf("store memory: %w", err)
	}
	log.FromCtx(ctx).Debug().
		Str("owner", owner).
		Str("memory_id", created.ID).
		Msg("stored new memory")
	return Decision{Op: OpAdd, Memory: created}, nil
}

// bestMatch picks the single memory the fact is resolved against. The store
// returns matches in descending score order; among equal top scores the most
// recently updated memory wins, so a fresh correction is preferred over the
// memory it superseded.
func bestMatch(matches []SearchResult) (SearchResult, bool) {
	if len(matches) == 0 {
		return SearchResult{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Score != best.Score {
			break
		}
		if m.Memory.UpdatedAt.After(best.Memory.UpdatedAt) {
			best = m
		}
	}
	return best, true
}
