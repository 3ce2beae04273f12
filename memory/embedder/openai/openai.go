// Package openai implements the embedder against any OpenAI-compatible
// embeddings endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shivansh-2003/memo-go/memory"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultModel      = "text-embedding-3-small"
	defaultDimensions = 1536
	defaultTimeout    = 30 * time.Second
)

// Config configures the embedder. Zero values take defaults.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// Embedder calls the /embeddings endpoint of an OpenAI-compatible API.
type Embedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

// New creates an embedder from cfg.
func New(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Embedder{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed converts text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &memory.GatewayError{
			Kind: memory.GatewayBadInput,
			Err:  fmt.Errorf("empty text"),
		}
	}

	body, err := json.Marshal(embeddingRequest{Input: text, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &memory.GatewayError{
			Kind: memory.GatewayUnavailable,
			Err:  fmt.Errorf("embeddings request: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		kind := memory.GatewayUnavailable
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			kind = memory.GatewayRateLimited
		case resp.StatusCode >= 500:
			kind = memory.GatewayUnavailable
		case resp.StatusCode >= 400:
			kind = memory.GatewayBadInput
		}
		return nil, &memory.GatewayError{
			Kind: kind,
			Err:  fmt.Errorf("embeddings API status %d: %s", resp.StatusCode, snippet),
		}
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embeddings API returned no data")
	}
	return parsed.Data[0].Embedding, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
