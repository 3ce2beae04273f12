// Package claude implements the language-model gateway on the Anthropic API.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shivansh-2003/memo-go/memory"
	"github.com/shivansh-2003/memo-go/memory/llm"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
)

const extractSystem = `You extract durable facts about the user from conversation turns.

Given one turn, reply with a JSON array of short, self-contained factual
statements in the third person, for example ["The user lives in Lisbon"].
Each statement must stand on its own without the conversation. Skip
questions, small talk, and transient states. Reply with [] when the turn
contains no durable fact. Reply with the JSON array only, no other text.`

const classifySystem = `You compare a stored fact with a new fact about the same user.

Reply with exactly one word:
equivalent - both state the same fact
refines - the new fact adds detail to or extends the stored one
contradicts - same subject and attribute, incompatible value
unrelated - different subject or attribute`

// Config configures the gateway. Zero values take defaults.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Gateway talks to the Anthropic Messages API.
type Gateway struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// New creates a gateway from cfg.
func New(cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key", memory.ErrInvalidInput)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Gateway{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}, nil
}

// ExtractFacts asks the model to distill turn into atomic facts.
func (g *Gateway) ExtractFacts(ctx context.Context, turn string) ([]string, error) {
	reply, err := g.message(ctx, extractSystem, turn)
	if err != nil {
		return nil, err
	}
	return parseFactList(reply)
}

// Classify asks the model how candidate relates to existing. Replies that
// match none of the known relations are treated as unrelated, which makes the
// consolidator store the candidate rather than touch the existing memory.
func (g *Gateway) Classify(ctx context.Context, existing, candidate string) (llm.Relation, error) {
	prompt := fmt.Sprintf("Stored fact: %s\nNew fact: %s", existing, candidate)
	reply, err := g.message(ctx, classifySystem, prompt)
	if err != nil {
		return "", err
	}
	switch llm.Relation(strings.ToLower(strings.TrimSpace(reply))) {
	case llm.RelationEquivalent:
		return llm.RelationEquivalent, nil
	case llm.RelationRefines:
		return llm.RelationRefines, nil
	case llm.RelationContradicts:
		return llm.RelationContradicts, nil
	default:
		return llm.RelationUnrelated, nil
	}
}

// Complete generates the final answer for an assembled prompt.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	return g.message(ctx, "", prompt)
}

func (g *Gateway) message(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapErr(err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// parseFactList pulls the JSON array out of the model reply, tolerating
// prose around it.
func parseFactList(reply string) ([]string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start == -1 || end <= start {
		return nil, &memory.GatewayError{
			Kind: memory.GatewayBadInput,
			Err:  fmt.Errorf("no JSON array in extraction reply %q", reply),
		}
	}
	var facts []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &facts); err != nil {
		return nil, &memory.GatewayError{
			Kind: memory.GatewayBadInput,
			Err:  fmt.Errorf("parse extraction reply: %w", err),
		}
	}
	return facts, nil
}

func wrapErr(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		kind := memory.GatewayUnavailable
		switch {
		case apiErr.StatusCode == 429:
			kind = memory.GatewayRateLimited
		case apiErr.StatusCode >= 500:
			kind = memory.GatewayUnavailable
		case apiErr.StatusCode >= 400:
			kind = memory.GatewayBadInput
		}
		return &memory.GatewayError{Kind: kind, Err: err}
	}
	return &memory.GatewayError{Kind: memory.GatewayUnavailable, Err: err}
}
