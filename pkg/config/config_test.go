package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "embedded", cfg.Graph.Mode)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Breaker.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRAPH_MODE", "neo4j")
	t.Setenv("NEO4J_URI", "bolt://db:7687")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "neo4j", cfg.Graph.Mode)
	assert.Equal(t, "bolt://db:7687", cfg.Graph.URI)
	assert.Equal(t, "sk-test", cfg.Extractor.APIKey)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
}

func TestValidateFlagsMissingKeys(t *testing.T) {
	cfg := &Config{
		Graph:    GraphConfig{Mode: "neo4j", Password: "password"},
		Chunking: ChunkingConfig{Size: 1000, Overlap: 200},
	}

	v := cfg.Validate()
	assert.False(t, v.Valid)
	require.Len(t, v.Issues, 3)
}

func TestValidateChunkGeometry(t *testing.T) {
	cfg := &Config{
		Extractor: LLMConfig{APIKey: "k"},
		Query:     LLMConfig{APIKey: "k"},
		Graph:     GraphConfig{Mode: "embedded"},
		Chunking:  ChunkingConfig{Size: 100, Overlap: 100},
	}

	v := cfg.Validate()
	assert.False(t, v.Valid)
	require.Len(t, v.Issues, 1)
	assert.Contains(t, v.Issues[0], "chunking geometry")
}

func TestValidateCleanConfig(t *testing.T) {
	cfg := &Config{
		Extractor: LLMConfig{APIKey: "k"},
		Query:     LLMConfig{APIKey: "k"},
		Graph:     GraphConfig{Mode: "embedded"},
		Chunking:  ChunkingConfig{Size: 1000, Overlap: 200},
	}

	v := cfg.Validate()
	assert.True(t, v.Valid)
	assert.Empty(t, v.Issues)
}
