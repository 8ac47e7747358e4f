package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, "none", cfg.Embedder.Type)
	assert.Equal(t, "insights", cfg.Collections.Insights)
	require.Len(t, cfg.Collections.Providers, 2)
	assert.Equal(t, "Factiva_SummaryArticles", cfg.Collections.Providers[0].Summary)
	assert.Equal(t, "Perigon_FullArticles", cfg.Collections.Providers[1].Full)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.LLM.APIKeyEnv)
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vector_store:
  type: chroma
  chroma:
    url: http://localhost:8001
embedder:
  type: openai
  openai: {}
llm:
  provider: OpenAI
collections:
  insights: research_insights
  providers:
    - name: Factiva
      summary: F_S
      full: F_F
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.VectorStore.Chroma.TimeoutSecs)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "research_insights", cfg.Collections.Insights)
	assert.Len(t, cfg.Collections.Providers, 1)
}

func TestValidateRejectsUnknownTypes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"vector store", func(c *AppConfig) { c.VectorStore.Type = "pinecone" }},
		{"chroma without url", func(c *AppConfig) { c.VectorStore.Type = "chroma" }},
		{"embedder", func(c *AppConfig) { c.Embedder.Type = "tfidf" }},
		{"llm", func(c *AppConfig) { c.LLM.Provider = "bard" }},
		{"provider", func(c *AppConfig) { c.Collections.Providers = []ProviderCollections{{Name: "X"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultConfig()
	cfg.Chat.MaxCitations = 7
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
