package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"argos/internal/domain"
	"argos/internal/history"
	"argos/internal/research"
	"argos/internal/service"
)

// API is the research surface the HTTP handlers expose.
type API interface {
	Assets() ([]research.Asset, error)
	Strategy(asset string) (research.Strategy, error)
	SaveStrategy(asset, content string, domains []string) error
	ResearchDomains() ([]research.Domain, error)
	ResearchDomain(id string) (research.Domain, error)
	ListArticles(ctx context.Context, q service.ArticleQuery) ([]domain.Record, error)
	GetArticle(ctx context.Context, id string) (domain.Record, error)
	ListInsights(ctx context.Context, q service.InsightQuery) ([]domain.Record, error)
	GetInsight(ctx context.Context, id string) (domain.Record, error)
	Report(asset string) (service.ReportView, error)
	Chat(ctx context.Context, req service.ChatRequest) (service.ChatReply, error)
	History(ctx context.Context, asset string, limit int) ([]history.Entry, error)
}

type strategyUpdate struct {
	Content         string   `json:"content"`
	ResearchDomains []string `json:"research_domains"`
}

func (h *HTTPServer) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.api.Assets()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (h *HTTPServer) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	s, err := h.api.Strategy(r.PathValue("asset"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *HTTPServer) handlePutStrategy(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")
	var body strategyUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.Detailf(domain.ErrInvalidInput, "invalid request body"))
		return
	}
	if err := h.api.SaveStrategy(asset, body.Content, body.ResearchDomains); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "asset_id": asset})
}

func (h *HTTPServer) handleDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.api.ResearchDomains()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"domains": domains})
}

func (h *HTTPServer) handleDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.api.ResearchDomain(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleArticles lists articles, or fetches one when ?id= is given.
func (h *HTTPServer) handleArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		h.writeRecord(w, r, id, h.api.GetArticle)
		return
	}
	limit, err := queryLimit(q.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	recs, err := h.api.ListArticles(r.Context(), service.ArticleQuery{
		AssetID:  q.Get("asset_id"),
		Domain:   q.Get("domain"),
		Keyword:  q.Get("keyword"),
		Limit:    limit,
		Provider: q.Get("provider"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": recs})
}

func (h *HTTPServer) handleArticle(w http.ResponseWriter, r *http.Request) {
	h.writeRecord(w, r, r.PathValue("id"), h.api.GetArticle)
}

func (h *HTTPServer) handleInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		h.writeRecord(w, r, id, h.api.GetInsight)
		return
	}
	limit, err := queryLimit(q.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	recs, err := h.api.ListInsights(r.Context(), service.InsightQuery{
		AssetID: q.Get("asset_id"),
		Domain:  q.Get("domain"),
		Keyword: q.Get("keyword"),
		Limit:   limit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": recs})
}

func (h *HTTPServer) handleInsight(w http.ResponseWriter, r *http.Request) {
	h.writeRecord(w, r, r.PathValue("id"), h.api.GetInsight)
}

func (h *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	view, err := h.api.Report(r.PathValue("asset"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.Detailf(domain.ErrInvalidInput, "invalid request body"))
		return
	}
	reply, err := h.api.Chat(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryLimit(q.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	entries, err := h.api.History(r.Context(), q.Get("asset_id"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *HTTPServer) writeRecord(w http.ResponseWriter, r *http.Request, id string, get func(context.Context, string) (domain.Record, error)) {
	rec, err := get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func queryLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Detailf(domain.ErrInvalidInput, "invalid limit %q", raw)
	}
	return n, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	detail := err.Error()
	var de *domain.DetailError
	if errors.As(err, &de) {
		detail = de.Detail
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
