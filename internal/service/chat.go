package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"argos/internal/citation"
	"argos/internal/domain"
	"argos/internal/history"
	"argos/internal/prompt"
	"argos/internal/research"
	"argos/internal/resolver"
)

// Turn is one prior message of a conversation as sent by the client.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string `json:"message"`
	AssetID string `json:"asset_id"`
	History []Turn `json:"history,omitempty"`
}

type ChatReply struct {
	Response string   `json:"response"`
	AssetID  string   `json:"asset_id"`
	Sources  []string `json:"sources"`
}

// Chat answers a message about an asset, grounded on the asset's newest
// markdown report and the insights and articles that report cites.
func (s *ResearchService) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	asset := strings.ToUpper(strings.TrimSpace(req.AssetID))
	message := strings.TrimSpace(req.Message)
	log := s.logger.With(zap.String("asset", asset))
	if asset == "" {
		return ChatReply{}, domain.Detailf(domain.ErrInvalidInput, "no asset provided in message. Please specify an asset.")
	}
	log.Info("chat request", zap.Int("history_turns", len(req.History)))

	report, content, err := s.archive.LatestMarkdownReport(asset)
	switch {
	case errors.Is(err, research.ErrAssetNotFound):
		return ChatReply{}, domain.Detailf(err, "asset does not exist")
	case errors.Is(err, research.ErrNoReport):
		return ChatReply{}, domain.Detailf(err, "No .md report files found for asset %s.", asset)
	case err != nil:
		log.Error("report access failed", zap.Error(err))
		return ChatReply{}, domain.Detailf(err, "Error accessing report files for asset %s.", asset)
	}
	log.Debug("using report", zap.String("file", report.Filename))

	if s.llm == nil {
		return ChatReply{}, domain.Detailf(domain.ErrUpstream, "LLM is not available (initialization failed at startup).")
	}

	cited := citation.Extract(content).Limit(s.maxCitations)
	insights := s.resolver.ResolveAll(ctx, cited.InsightIDs, domain.KindInsight, s.insightChain(asset))
	articles := s.resolver.ResolveAll(ctx, cited.ArticleIDs, domain.KindArticle, s.articleChain(asset))
	log.Info("citations resolved",
		zap.Int("insights", len(insights.Records)),
		zap.Int("articles", len(articles.Records)),
		zap.Strings("unresolved", append(insights.Unresolved, articles.Unresolved...)))

	doc := prompt.Assemble(content, insights.Records, articles.Records, message)
	answer, err := s.llm.Complete(ctx, doc)
	if err != nil {
		log.Error("llm call failed", zap.Error(err))
		return ChatReply{}, domain.Detailf(domain.ErrUpstream, "LLM call failed for asset %s.", asset)
	}

	reply := ChatReply{
		Response: strings.TrimSpace(answer),
		AssetID:  asset,
		Sources:  make([]string, 0, len(insights.Records)+len(articles.Records)),
	}
	for _, r := range insights.Records {
		reply.Sources = append(reply.Sources, r.ID)
	}
	for _, r := range articles.Records {
		reply.Sources = append(reply.Sources, r.ID)
	}

	if s.history != nil {
		if _, err := s.history.Append(ctx, history.Entry{
			AssetID:  asset,
			Message:  message,
			Response: reply.Response,
			Sources:  reply.Sources,
		}); err != nil {
			log.Warn("chat history append failed", zap.Error(err))
		}
	}
	return reply, nil
}

// History lists past exchanges, newest first.
func (s *ResearchService) History(ctx context.Context, asset string, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return []history.Entry{}, nil
	}
	return s.history.List(ctx, strings.ToUpper(strings.TrimSpace(asset)), limit)
}

// ReportDigest summarizes the newest markdown report of an asset.
func (s *ResearchService) ReportDigest(asset string) (string, error) {
	_, content, err := s.archive.LatestMarkdownReport(strings.ToUpper(strings.TrimSpace(asset)))
	if err != nil {
		return "", err
	}
	return s.digest(content), nil
}

func (s *ResearchService) insightChain(asset string) []resolver.Link {
	return []resolver.Link{
		resolver.StoreLink{Getter: s.insights},
		resolver.FileLink{Reader: s.archive, Asset: asset, Kind: domain.KindInsight},
	}
}

// articleChain prefers full text over summaries, then the archive.
func (s *ResearchService) articleChain(asset string) []resolver.Link {
	chain := make([]resolver.Link, 0, 2*len(s.providers)+1)
	for _, p := range s.providers {
		chain = append(chain, resolver.StoreLink{Getter: p.Full})
	}
	for _, p := range s.providers {
		chain = append(chain, resolver.StoreLink{Getter: p.Summary})
	}
	return append(chain, resolver.FileLink{Reader: s.archive, Asset: asset, Kind: domain.KindArticle})
}
