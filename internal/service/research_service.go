package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"argos/internal/collection"
	"argos/internal/config"
	"argos/internal/domain"
	"argos/internal/history"
	"argos/internal/research"
	"argos/internal/resolver"
	"argos/internal/retrieval"
	"argos/internal/vectorstore"
)

// DefaultListLimit applies when a list request carries no positive limit.
const DefaultListLimit = 20

// HistoryStore persists chat exchanges.
type HistoryStore interface {
	Append(ctx context.Context, e history.Entry) (history.Entry, error)
	List(ctx context.Context, asset string, limit int) ([]history.Entry, error)
}

// Provider groups the two collections of one news provider.
type Provider struct {
	Name    string
	Summary *collection.Adapter
	Full    *collection.Adapter
}

// Deps carries everything the service is built from. LLM, History and
// Summarizer are optional.
type Deps struct {
	Store        vectorstore.Store
	Collections  config.CollectionsConfig
	Universe     *research.Universe
	Domains      *research.Domains
	Archive      *research.Archive
	LLM          domain.Completer
	History      HistoryStore
	Summarizer   domain.Summarizer
	MaxCitations int
	Logger       *zap.Logger
}

// ResearchService answers every API and chat request.
type ResearchService struct {
	universe     *research.Universe
	domains      *research.Domains
	archive      *research.Archive
	insights     *collection.Adapter
	providers    []Provider
	merger       *retrieval.Merger
	resolver     *resolver.Resolver
	llm          domain.Completer
	history      HistoryStore
	summarizer   domain.Summarizer
	maxCitations int
	logger       *zap.Logger
}

func NewResearchService(d Deps) *ResearchService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ResearchService{
		universe:     d.Universe,
		domains:      d.Domains,
		archive:      d.Archive,
		merger:       retrieval.NewMerger(logger),
		resolver:     resolver.New(logger),
		llm:          d.LLM,
		history:      d.History,
		summarizer:   d.Summarizer,
		maxCitations: d.MaxCitations,
		logger:       logger,
	}
	s.insights = collection.New(domain.CollectionHandle{
		Name: d.Collections.Insights,
		Kind: domain.CollectionInsights,
	}, d.Store, logger)
	for _, p := range d.Collections.Providers {
		s.providers = append(s.providers, Provider{
			Name:    p.Name,
			Summary: collection.New(domain.CollectionHandle{Name: p.Summary, Kind: domain.CollectionSummary, Provider: p.Name}, d.Store, logger),
			Full:    collection.New(domain.CollectionHandle{Name: p.Full, Kind: domain.CollectionFull, Provider: p.Name}, d.Store, logger),
		})
	}
	return s
}

func (s *ResearchService) Assets() ([]research.Asset, error) {
	return s.universe.Assets()
}

func (s *ResearchService) Strategy(asset string) (research.Strategy, error) {
	st, err := s.universe.Strategy(asset)
	if errors.Is(err, domain.ErrNotFound) {
		return st, domain.Detailf(err, "Strategy for %s not found", asset)
	}
	return st, err
}

func (s *ResearchService) SaveStrategy(asset, content string, domains []string) error {
	return s.universe.SaveStrategy(asset, content, domains)
}

func (s *ResearchService) ResearchDomains() ([]research.Domain, error) {
	return s.domains.List()
}

func (s *ResearchService) ResearchDomain(id string) (research.Domain, error) {
	d, err := s.domains.Get(id)
	if errors.Is(err, domain.ErrNotFound) {
		return d, domain.Detailf(err, "Research domain %s not found", id)
	}
	return d, err
}

// ArticleQuery is a news listing request. Provider restricts the scan to one
// provider's summary and full collections, deduplicated by id.
type ArticleQuery struct {
	AssetID  string
	Domain   string
	Keyword  string
	Limit    int
	Provider string
}

// ListArticles merges every provider's summary collection, newest first.
func (s *ResearchService) ListArticles(ctx context.Context, q ArticleQuery) ([]domain.Record, error) {
	req := domain.QueryRequest{
		Keyword: strings.TrimSpace(q.Keyword),
		Filters: filters(map[string]string{"asset": q.AssetID, "domain": q.Domain}),
		Limit:   limitOrDefault(q.Limit),
	}
	if q.Provider != "" {
		p, ok := s.provider(q.Provider)
		if !ok {
			return nil, domain.Detailf(domain.ErrInvalidInput, "unknown provider %s", q.Provider)
		}
		return s.merger.Search(ctx, []retrieval.Source{p.Summary, p.Full}, req, retrieval.Options{Dedupe: true}), nil
	}
	sources := make([]retrieval.Source, 0, len(s.providers))
	for _, p := range s.providers {
		sources = append(sources, p.Summary)
	}
	return s.merger.Search(ctx, sources, req, retrieval.Options{}), nil
}

// GetArticle looks in every summary collection, then every full one.
func (s *ResearchService) GetArticle(ctx context.Context, id string) (domain.Record, error) {
	var chain []resolver.Link
	for _, p := range s.providers {
		chain = append(chain, resolver.StoreLink{Getter: p.Summary})
	}
	for _, p := range s.providers {
		chain = append(chain, resolver.StoreLink{Getter: p.Full})
	}
	rec, ok := s.resolver.Resolve(ctx, id, domain.KindArticle, chain)
	if !ok {
		return domain.Record{}, domain.Detailf(domain.ErrNotFound, "Article %s not found", id)
	}
	return rec, nil
}

// InsightQuery is an insight listing request.
type InsightQuery struct {
	AssetID string
	Domain  string
	Keyword string
	Limit   int
}

func (s *ResearchService) ListInsights(ctx context.Context, q InsightQuery) ([]domain.Record, error) {
	req := domain.QueryRequest{
		Keyword: strings.TrimSpace(q.Keyword),
		Filters: filters(map[string]string{"asset_id": q.AssetID, "domain": q.Domain}),
		Limit:   limitOrDefault(q.Limit),
	}
	return s.merger.Search(ctx, []retrieval.Source{s.insights}, req, retrieval.Options{}), nil
}

// GetInsight looks in the insights collection, then in every asset's archive.
func (s *ResearchService) GetInsight(ctx context.Context, id string) (domain.Record, error) {
	chain := []resolver.Link{
		resolver.StoreLink{Getter: s.insights},
		resolver.FileLink{Reader: s.archive, Kind: domain.KindInsight},
	}
	rec, ok := s.resolver.Resolve(ctx, id, domain.KindInsight, chain)
	if !ok {
		return domain.Record{}, domain.Detailf(domain.ErrNotFound, "Insight %s not found", id)
	}
	return rec, nil
}

// ReportView is the newest report of an asset. Content and Digest are set for
// markdown reports only.
type ReportView struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Content  string `json:"content,omitempty"`
	Digest   string `json:"digest,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (s *ResearchService) Report(asset string) (ReportView, error) {
	r, err := s.archive.LatestReport(asset)
	switch {
	case errors.Is(err, research.ErrAssetNotFound):
		return ReportView{}, domain.Detailf(err, "No report directory found for %s", asset)
	case errors.Is(err, research.ErrNoReport):
		return ReportView{}, domain.Detailf(err, "No report files found for %s", asset)
	case err != nil:
		return ReportView{}, err
	}
	view := ReportView{Filename: r.Filename, Format: r.Format}
	if r.Format != "md" {
		view.Note = "Report is not markdown, content not shown."
		return view, nil
	}
	content, err := s.archive.ReadContent(r)
	if err != nil {
		return ReportView{}, fmt.Errorf("read report file: %w", err)
	}
	view.Content = content
	view.Digest = s.digest(content)
	return view, nil
}

func (s *ResearchService) digest(text string) string {
	if s.summarizer == nil {
		return ""
	}
	d, err := s.summarizer.Summarize(text, 3)
	if err != nil {
		s.logger.Debug("report digest failed", zap.Error(err))
		return ""
	}
	return d
}

func (s *ResearchService) provider(name string) (Provider, bool) {
	for _, p := range s.providers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Provider{}, false
}

func filters(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}
