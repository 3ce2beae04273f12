package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shivansh-2003/memo-go/memory/llm"
	"github.com/shivansh-2003/memo-go/pkg/log"
)

// Extractor turns raw conversation turns into atomic candidate facts.
//
// Extraction is all-or-nothing per turn: if the language-model call fails,
// the turn is skipped and the failure reported upward; no partial facts are
// ever handed to the consolidator.
type Extractor struct {
	gateway llm.Gateway
}

// NewExtractor creates an extractor over the given language-model gateway.
func NewExtractor(gateway llm.Gateway) *Extractor {
	return &Extractor{gateway: gateway}
}

// Extract splits a turn into independent, self-contained factual statements.
// Turns with no durable factual content yield an empty slice. The order of
// returned facts is extraction order and carries no meaning downstream.
func (e *Extractor) Extract(ctx context.Context, turn Turn) ([]CandidateFact, error) {
	content := strings.TrimSpace(turn.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty turn", ErrInvalidInput)
	}

	text := content
	if turn.Role != "" {
		text = turn.Role + ": " + content
	}

	statements, err := e.gateway.ExtractFacts(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}

	facts := make([]CandidateFact, 0, len(statements))
	for _, s := range statements {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		facts = append(facts, CandidateFact{Text: s, SourceTurnID: turn.ID})
	}

	log.FromCtx(ctx).Debug().
		Str("turn_id", turn.ID).
		Int("facts", len(facts)).
		Msg("extracted facts from turn")

	return facts, nil
}
