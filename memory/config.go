package memory

// Config holds the tunable consolidation and retrieval knobs.
// Thresholds are configuration rather than constants: embedding models
// produce very different score distributions (tiny local models score
// similar text around 0.35, large API models around 0.7-0.85).
type Config struct {
	// DupThreshold is the similarity above which a match is treated as
	// near-identical to the candidate fact.
	DupThreshold float64

	// RelatedThreshold is the similarity above which a match is topically
	// related to the candidate fact. Below it, facts are independent.
	RelatedThreshold float64

	// MinRetrieval is the minimum similarity for a memory to be returned by
	// the Retriever. A score exactly equal to MinRetrieval is kept.
	MinRetrieval float64

	// SearchK is how many near-duplicates consolidation inspects per fact.
	SearchK int

	// RetrieveLimit is the default number of memories the composer pulls.
	RetrieveLimit int

	// MaxMemoriesPerOwner caps total memories per owner. Zero disables the
	// cap. When an owner is at capacity, new facts are skipped and reported.
	MaxMemoriesPerOwner int

	// PromptTokenBudget bounds the composed prompt; lowest-ranked memories
	// are dropped first when the rendered prompt exceeds it.
	PromptTokenBudget int
}

// DefaultConfig returns sensible defaults for API-grade embedders.
var DefaultConfig = &Config{
	DupThreshold:        0.90,
	RelatedThreshold:    0.70,
	MinRetrieval:        0.50,
	SearchK:             5,
	RetrieveLimit:       10,
	MaxMemoriesPerOwner: 1000,
	PromptTokenBudget:   2000,
}
