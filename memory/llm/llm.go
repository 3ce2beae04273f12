// Package llm defines the language-model gateway boundary.
//
// The gateway is request/response only; the memory core never streams.
// Implementations: claude (Anthropic API). Tests use in-package fakes.
package llm

import "context"

// Relation classifies a candidate fact against an existing memory.
type Relation string

const (
	// RelationEquivalent means both texts state the same fact.
	RelationEquivalent Relation = "equivalent"

	// RelationRefines means the candidate adds detail to, extends, or
	// corrects the phrasing of the existing memory about the same subject.
	RelationRefines Relation = "refines"

	// RelationContradicts means same subject and attribute with an
	// incompatible value, the candidate being the newer statement.
	RelationContradicts Relation = "contradicts"

	// RelationUnrelated means the texts concern different subjects or
	// attributes despite their vector similarity.
	RelationUnrelated Relation = "unrelated"
)

// Gateway is the language-model boundary used by the memory core.
type Gateway interface {
	// ExtractFacts distills a conversation turn into zero or more atomic
	// factual statements. Turns without durable factual content yield an
	// empty slice, not an error.
	ExtractFacts(ctx context.Context, turn string) ([]string, error)

	// Classify judges how a candidate fact relates to an existing memory.
	Classify(ctx context.Context, existing, candidate string) (Relation, error)

	// Complete generates the final answer for an assembled prompt and
	// returns the model output verbatim.
	Complete(ctx context.Context, prompt string) (string, error)
}
