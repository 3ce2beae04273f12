// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/shivansh-2003/memo-go/memory"
)

// Config is the full runtime configuration.
type Config struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY,required,notEmpty"`
	Model           string `env:"MEMO_MODEL" envDefault:"claude-sonnet-4-20250514"`

	EmbeddingBaseURL    string `env:"MEMO_EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbeddingAPIKey     string `env:"MEMO_EMBEDDING_API_KEY"`
	EmbeddingModel      string `env:"MEMO_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int    `env:"MEMO_EMBEDDING_DIMENSIONS" envDefault:"1536"`

	// StorePath selects the durable SQLite store when set; empty keeps
	// memories in process.
	StorePath string `env:"MEMO_STORE_PATH"`

	DupThreshold     float64 `env:"MEMO_DUP_THRESHOLD" envDefault:"0.90"`
	RelatedThreshold float64 `env:"MEMO_RELATED_THRESHOLD" envDefault:"0.70"`
	MinRetrieval     float64 `env:"MEMO_MIN_RETRIEVAL" envDefault:"0.50"`

	SearchK             int `env:"MEMO_SEARCH_K" envDefault:"5"`
	RetrieveLimit       int `env:"MEMO_RETRIEVE_LIMIT" envDefault:"10"`
	MaxMemoriesPerOwner int `env:"MEMO_MAX_MEMORIES_PER_OWNER" envDefault:"1000"`
	PromptTokenBudget   int `env:"MEMO_PROMPT_TOKEN_BUDGET" envDefault:"2000"`

	RequestTimeout time.Duration `env:"MEMO_REQUEST_TIMEOUT" envDefault:"30s"`
	Debug          bool          `env:"MEMO_DEBUG" envDefault:"false"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !(0 <= c.MinRetrieval && c.MinRetrieval <= c.RelatedThreshold && c.RelatedThreshold <= c.DupThreshold && c.DupThreshold <= 1) {
		return fmt.Errorf("thresholds must satisfy 0 <= min retrieval <= related <= dup <= 1, got %.2f/%.2f/%.2f",
			c.MinRetrieval, c.RelatedThreshold, c.DupThreshold)
	}
	return nil
}

// Memory converts the loaded values into the memory pipeline's config.
func (c *Config) Memory() *memory.Config {
	return &memory.Config{
		DupThreshold:        c.DupThreshold,
		RelatedThreshold:    c.RelatedThreshold,
		MinRetrieval:        c.MinRetrieval,
		SearchK:             c.SearchK,
		RetrieveLimit:       c.RetrieveLimit,
		MaxMemoriesPerOwner: c.MaxMemoriesPerOwner,
		PromptTokenBudget:   c.PromptTokenBudget,
	}
}
