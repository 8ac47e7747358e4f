package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"argos/internal/embedding"
	"argos/internal/vectorstore"
)

// Storage is a minimal REST client for a ChromaDB server (v1 API).
// Keyword queries are embedded remotely when an Embedder is configured;
// otherwise they fall back to a $contains document filter.
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

var include = []string{"documents", "metadatas"}

type getResponse struct {
	IDs       []string         `json:"ids"`
	Documents []*string        `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]*string        `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

func (s *Storage) Query(ctx context.Context, collection string, q vectorstore.Query) ([]vectorstore.Row, error) {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	if q.Text != "" && s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		body := map[string]any{
			"query_embeddings": [][]float64{vec},
			"n_results":        limit,
			"include":          include,
		}
		if w := whereClause(q.Where); w != nil {
			body["where"] = w
		}
		var resp queryResponse
		if err := s.postJSON(ctx, s.endpoint("collections", id, "query"), body, &resp); err != nil {
			return nil, err
		}
		if len(resp.IDs) == 0 {
			return nil, nil
		}
		var docs []*string
		var metas []map[string]any
		if len(resp.Documents) > 0 {
			docs = resp.Documents[0]
		}
		if len(resp.Metadatas) > 0 {
			metas = resp.Metadatas[0]
		}
		return zipRows(resp.IDs[0], docs, metas), nil
	}

	body := map[string]any{"limit": limit, "include": include}
	if w := whereClause(q.Where); w != nil {
		body["where"] = w
	}
	if q.Text != "" {
		body["where_document"] = map[string]any{"$contains": q.Text}
	}
	var resp getResponse
	if err := s.postJSON(ctx, s.endpoint("collections", id, "get"), body, &resp); err != nil {
		return nil, err
	}
	return zipRows(resp.IDs, resp.Documents, resp.Metadatas), nil
}

func (s *Storage) Get(ctx context.Context, collection string, ids []string) ([]vectorstore.Row, error) {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}
	var resp getResponse
	body := map[string]any{"ids": ids, "include": include}
	if err := s.postJSON(ctx, s.endpoint("collections", id, "get"), body, &resp); err != nil {
		return nil, err
	}
	return zipRows(resp.IDs, resp.Documents, resp.Metadatas), nil
}

func (s *Storage) collectionID(ctx context.Context, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("collections", name), nil)
	if err != nil {
		return "", err
	}
	s.authorize(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	// Chroma reports unknown collections as 404 on newer servers and as a
	// 500 ValueError on older ones.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusInternalServerError {
		return "", fmt.Errorf("%s: %w", name, vectorstore.ErrCollectionNotFound)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chroma GET collection %s failed: %s", name, resp.Status)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("chroma returned a collection without id")
	}
	return out.ID, nil
}

// whereClause builds a Chroma metadata filter; more than one key needs $and.
func whereClause(where map[string]string) map[string]any {
	if len(where) == 0 {
		return nil
	}
	if len(where) == 1 {
		for k, v := range where {
			return map[string]any{k: v}
		}
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	clauses := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, map[string]any{k: where[k]})
	}
	return map[string]any{"$and": clauses}
}

func zipRows(ids []string, docs []*string, metas []map[string]any) []vectorstore.Row {
	rows := make([]vectorstore.Row, 0, len(ids))
	for i, id := range ids {
		r := vectorstore.Row{ID: id}
		if i < len(docs) && docs[i] != nil {
			r.Document = *docs[i]
		}
		if i < len(metas) {
			r.Metadata = metas[i]
		}
		rows = append(rows, r)
	}
	return rows
}

func (s *Storage) endpoint(parts ...string) string {
	u := s.url + "/api/v1"
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

func (s *Storage) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("X-Chroma-Token", s.apiKey)
	}
}

func (s *Storage) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
