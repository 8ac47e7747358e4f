package cli

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"argos/internal/config"
	"argos/internal/embedding"
	"argos/internal/embedding/openai"
	"argos/internal/history"
	"argos/internal/llm"
	"argos/internal/research"
	"argos/internal/service"
	"argos/internal/summarizer"
	"argos/internal/vectorstore"
	"argos/internal/vectorstore/chroma"
	"argos/internal/vectorstore/memory"
	"argos/internal/vectorstore/qdrant"
)

// app holds the assembled service and whatever must be closed with it.
type app struct {
	svc     *service.ResearchService
	history *history.Store
}

func (a *app) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// buildApp assembles every component named in cfg. A failing LLM client is
// logged and the service runs without chat, as listings do not need it.
func buildApp(cfg *config.AppConfig, logger *zap.Logger) (*app, error) {
	emb, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(cfg.VectorStore, emb)
	if err != nil {
		return nil, err
	}

	completer, err := llm.New(cfg.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, chat disabled", zap.Error(err))
		completer = nil
	}

	hist, err := history.Open(cfg.Chat.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open chat history: %w", err)
	}

	svc := service.NewResearchService(service.Deps{
		Store:        store,
		Collections:  cfg.Collections,
		Universe:     research.NewUniverse(cfg.Data.UniverseDir),
		Domains:      research.NewDomains(cfg.Data.ResearchDomainsDir),
		Archive:      research.NewArchive(cfg.Data.OutputDir),
		LLM:          completer,
		History:      hist,
		Summarizer:   summarizer.NewFrequencySummarizer(),
		MaxCitations: cfg.Chat.MaxCitations,
		Logger:       logger,
	})
	logger.Info("service assembled",
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("embedder", cfg.Embedder.Type),
		zap.String("llm", cfg.LLM.Provider),
		zap.Bool("chat_enabled", completer != nil))
	return &app{svc: svc, history: hist}, nil
}

func buildEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func buildStore(cfg config.VectorStoreConfig, emb embedding.Embedder) (vectorstore.Store, error) {
	switch cfg.Type {
	case "memory", "":
		st := memory.NewStorage()
		if cfg.Memory != nil && cfg.Memory.SeedFile != "" {
			if err := st.LoadSeedFile(cfg.Memory.SeedFile); err != nil {
				return nil, fmt.Errorf("load seed file: %w", err)
			}
		}
		return st, nil
	case "chroma":
		if cfg.Chroma == nil {
			return nil, fmt.Errorf("chroma config missing")
		}
		return chroma.NewStorage(chroma.Config{
			URL:      cfg.Chroma.URL,
			APIKey:   os.Getenv(cfg.Chroma.APIKeyEnv),
			Timeout:  time.Duration(cfg.Chroma.TimeoutSecs) * time.Second,
			Embedder: emb,
		}), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:      cfg.Qdrant.URL,
			APIKey:   cfg.Qdrant.APIKey,
			Timeout:  time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
			Embedder: emb,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}
