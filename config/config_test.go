package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivansh-2003/memo-go/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.AnthropicAPIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, 0.90, cfg.DupThreshold)
	assert.Equal(t, 0.70, cfg.RelatedThreshold)
	assert.Equal(t, 0.50, cfg.MinRetrieval)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Empty(t, cfg.StorePath)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_RejectsInvertedThresholds(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("MEMO_DUP_THRESHOLD", "0.5")
	t.Setenv("MEMO_RELATED_THRESHOLD", "0.8")

	_, err := config.Load()
	require.Error(t, err)
}

func TestMemory_CarriesThresholds(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("MEMO_DUP_THRESHOLD", "0.85")
	t.Setenv("MEMO_MAX_MEMORIES_PER_OWNER", "50")

	cfg, err := config.Load()
	require.NoError(t, err)

	mc := cfg.Memory()
	assert.Equal(t, 0.85, mc.DupThreshold)
	assert.Equal(t, 50, mc.MaxMemoriesPerOwner)
	assert.Equal(t, 2000, mc.PromptTokenBudget)
}
