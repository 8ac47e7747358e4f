package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	CORSOrigins  []string `yaml:"cors_origins"`
	ReadTimeout  int      `yaml:"read_timeout_secs"`
	WriteTimeout int      `yaml:"write_timeout_secs"`
}

// DataConfig locates the on-disk research tree.
type DataConfig struct {
	UniverseDir        string `yaml:"universe_dir"`
	ResearchDomainsDir string `yaml:"research_domains_dir"`
	OutputDir          string `yaml:"output_dir"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects the query embedder. "none" leaves keyword search to
// the store's own text matching.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Memory *MemoryConfig `yaml:"memory,omitempty"`
	Chroma *ChromaConfig `yaml:"chroma,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// MemoryConfig seeds the in-memory store from a JSON file.
type MemoryConfig struct {
	SeedFile string `yaml:"seed_file"`
}

// ChromaConfig contains connection details for a ChromaDB server.
type ChromaConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ProviderCollections names the two collections a news provider publishes.
type ProviderCollections struct {
	Name    string `yaml:"name"`
	Summary string `yaml:"summary"`
	Full    string `yaml:"full"`
}

// CollectionsConfig names every collection the API reads.
type CollectionsConfig struct {
	Insights  string                `yaml:"insights"`
	Providers []ProviderCollections `yaml:"providers"`
}

// LLMConfig selects the chat model.
type LLMConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// ChatConfig tunes the chat pipeline.
type ChatConfig struct {
	MaxCitations int    `yaml:"max_citations"`
	HistoryDB    string `yaml:"history_db"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	// File receives log output instead of stderr.
	File string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Data        DataConfig        `yaml:"data"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Collections CollectionsConfig `yaml:"collections"`
	LLM         LLMConfig         `yaml:"llm"`
	Chat        ChatConfig        `yaml:"chat"`
	Logging     LoggingConfig     `yaml:"logging"`
}

func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then $XDG_CONFIG_HOME/argos/config.yaml.
// If neither exists, it writes defaults to the XDG path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath := DefaultUserConfigPath()
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultUserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "argos", "config.yaml")
}

func defaultHistoryPath() string {
	return filepath.Join(xdg.DataHome, "argos", "history.db")
}

// Validate rejects unknown implementation names and incomplete sections.
func (c *AppConfig) Validate() error {
	switch c.VectorStore.Type {
	case "memory":
	case "chroma":
		if c.VectorStore.Chroma == nil || c.VectorStore.Chroma.URL == "" {
			return errors.New("vector_store.chroma.url is required")
		}
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			return errors.New("vector_store.qdrant.url is required")
		}
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	switch c.Embedder.Type {
	case "none":
	case "openai":
		if c.Embedder.OpenAI == nil {
			return errors.New("embedder.openai section is required")
		}
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch c.LLM.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown llm provider: %q (valid: anthropic, openai)", c.LLM.Provider)
	}
	if c.Collections.Insights == "" {
		return errors.New("collections.insights is required")
	}
	for i, p := range c.Collections.Providers {
		if p.Name == "" || p.Summary == "" || p.Full == "" {
			return fmt.Errorf("collections.providers[%d] needs name, summary and full", i)
		}
	}
	return nil
}

func defaultProviders() []ProviderCollections {
	names := []string{"Factiva", "Perigon"}
	out := make([]ProviderCollections, 0, len(names))
	for _, n := range names {
		out = append(out, ProviderCollections{Name: n, Summary: n + "_SummaryArticles", Full: n + "_FullArticles"})
	}
	return out
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120
	}
	if cfg.Data.UniverseDir == "" {
		cfg.Data.UniverseDir = "universe"
	}
	if cfg.Data.ResearchDomainsDir == "" {
		cfg.Data.ResearchDomainsDir = "research_domains"
	}
	if cfg.Data.OutputDir == "" {
		cfg.Data.OutputDir = "output"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if c := cfg.VectorStore.Chroma; c != nil && c.TimeoutSecs == 0 {
		c.TimeoutSecs = 15
	}
	if q := cfg.VectorStore.Qdrant; q != nil && q.TimeoutSecs == 0 {
		q.TimeoutSecs = 15
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "none"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Collections.Insights == "" {
		cfg.Collections.Insights = "insights"
	}
	if cfg.Collections.Providers == nil {
		cfg.Collections.Providers = defaultProviders()
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		default:
			cfg.LLM.Model = "claude-sonnet-4-5"
		}
	}
	if cfg.LLM.APIKeyEnv == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		default:
			cfg.LLM.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.Chat.MaxCitations == 0 {
		cfg.Chat.MaxCitations = 50
	}
	if cfg.Chat.HistoryDB == "" {
		cfg.Chat.HistoryDB = defaultHistoryPath()
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
