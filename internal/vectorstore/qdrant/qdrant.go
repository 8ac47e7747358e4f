package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"argos/internal/embedding"
	"argos/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant.
// Record ids live in the "id" payload field; documents in "document" or "text".
type Storage struct {
	url      string
	apiKey   string
	embedder embedding.Embedder
	client   *http.Client
}

type Config struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	Embedder embedding.Embedder
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		embedder: cfg.Embedder,
		client:   &http.Client{Timeout: timeout},
	}
}

type point struct {
	ID      any            `json:"id"`
	Payload map[string]any `json:"payload"`
}

func (s *Storage) Query(ctx context.Context, collection string, q vectorstore.Query) ([]vectorstore.Row, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	must := matchClauses(q.Where)

	if q.Text != "" && s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		req := map[string]any{
			"vector":       vec,
			"limit":        limit,
			"with_payload": true,
		}
		if len(must) > 0 {
			req["filter"] = map[string]any{"must": must}
		}
		var resp struct {
			Result []point `json:"result"`
		}
		if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, collection), req, &resp); err != nil {
			return nil, err
		}
		return toRows(resp.Result), nil
	}

	if q.Text != "" {
		must = append(must, map[string]any{"key": "text", "match": map[string]any{"text": q.Text}})
	}
	return s.scroll(ctx, collection, must, limit)
}

func (s *Storage) Get(ctx context.Context, collection string, ids []string) ([]vectorstore.Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	must := []map[string]any{{"key": "id", "match": map[string]any{"any": ids}}}
	rows, err := s.scroll(ctx, collection, must, len(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]vectorstore.Row, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]vectorstore.Row, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Storage) scroll(ctx context.Context, collection string, must []map[string]any, limit int) ([]vectorstore.Row, error) {
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if len(must) > 0 {
		req["filter"] = map[string]any{"must": must}
	}
	var resp struct {
		Result struct {
			Points []point `json:"points"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", s.url, collection), req, &resp); err != nil {
		return nil, err
	}
	return toRows(resp.Result.Points), nil
}

func matchClauses(where map[string]string) []map[string]any {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	must := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		must = append(must, map[string]any{"key": k, "match": map[string]any{"value": where[k]}})
	}
	return must
}

func toRows(points []point) []vectorstore.Row {
	rows := make([]vectorstore.Row, 0, len(points))
	for _, p := range points {
		r := vectorstore.Row{Metadata: map[string]any{}}
		for k, v := range p.Payload {
			switch k {
			case "document", "text":
			default:
				r.Metadata[k] = v
			}
		}
		if v, ok := p.Payload["id"].(string); ok && v != "" {
			r.ID = v
		} else if p.ID != nil {
			r.ID = fmt.Sprint(p.ID)
		}
		if v, ok := p.Payload["document"].(string); ok {
			r.Document = v
		} else if v, ok := p.Payload["text"].(string); ok {
			r.Document = v
		}
		rows = append(rows, r)
	}
	return rows
}

func (s *Storage) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", url, vectorstore.ErrCollectionNotFound)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
