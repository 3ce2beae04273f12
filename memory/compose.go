package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/shivansh-2003/memo-go/memory/llm"
	"github.com/shivansh-2003/memo-go/pkg/log"
)

// TokenCounter measures prompt text against the token budget.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// estimateCounter approximates tokens as runes/4, rounded up. Used when the
// tiktoken encoding cannot be loaded.
type estimateCounter struct{}

func (estimateCounter) Count(text string) int {
	return utf8.RuneCountInString(text)/4 + 1
}

func newTokenCounter() TokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return estimateCounter{}
	}
	return &tiktokenCounter{enc: enc}
}

// MemoryRetriever is the read-only lookup the composer depends on.
type MemoryRetriever interface {
	Retrieve(ctx context.Context, owner, query string, limit int) ([]RetrievalResult, error)
}

// Composer assembles memory-grounded prompts and produces final answers.
//
// It is strictly read-only over memories: a question never creates, updates,
// or deletes anything. When retrieval fails the composer degrades to
// answering without memories instead of failing the question.
type Composer struct {
	retriever MemoryRetriever
	gateway   llm.Gateway
	config    *Config
	counter   TokenCounter
}

// NewComposer creates a composer. A nil config uses DefaultConfig.
func NewComposer(retriever MemoryRetriever, gateway llm.Gateway, config *Config) *Composer {
	if config == nil {
		config = DefaultConfig
	}
	return &Composer{
		retriever: retriever,
		gateway:   gateway,
		config:    config,
		counter:   newTokenCounter(),
	}
}

// Compose retrieves memories relevant to query, folds them into a prompt
// within the token budget, and returns the model's answer verbatim.
func (c *Composer) Compose(ctx context.Context, owner, query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	memories, err := c.retriever.Retrieve(ctx, owner, query, c.config.RetrieveLimit)
	if err != nil {
		// Retrieval failure degrades to a memory-less answer.
		log.FromCtx(ctx).Warn().
			Err(err).
			Str("owner", owner).
			Msg("memory retrieval failed, answering without memories")
		memories = nil
	}

	prompt := c.buildPrompt(query, memories)

	answer, err := c.gateway.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete answer: %w", err)
	}
	return answer, nil
}

// buildPrompt renders the retrieved memories above the question. Memories are
// dropped lowest-ranked first until the prompt fits the token budget; the
// question itself is never trimmed.
func (c *Composer) buildPrompt(query string, memories []RetrievalResult) string {
	for {
		prompt := renderPrompt(query, memories)
		if len(memories) == 0 || c.counter.Count(prompt) <= c.config.PromptTokenBudget {
			return prompt
		}
		memories = memories[:len(memories)-1]
	}
}

func renderPrompt(query string, memories []RetrievalResult) string {
	var b strings.Builder
	if len(memories) == 0 {
		b.WriteString("No stored memories are relevant to this question.\n")
	} else {
		b.WriteString("Known facts about the user:\n")
		for i, m := range memories {
			fmt.Fprintf(&b, "%d. %s\n", i+1, m.Text)
		}
	}
	b.WriteString("\nAnswer the user's question using these facts where relevant.\n")
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
