package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"argos/internal/vectorstore"
)

// Storage is an in-memory collection store. Keyword queries are plain
// case-insensitive substring matches over the document and string metadata.
type Storage struct {
	mu          sync.RWMutex
	collections map[string][]vectorstore.Row
}

func NewStorage() *Storage {
	return &Storage{collections: make(map[string][]vectorstore.Row)}
}

// Add appends rows to a collection, creating it when missing.
func (s *Storage) Add(collection string, rows ...vectorstore.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], rows...)
}

type seedRow struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata"`
}

// LoadSeedFile reads a JSON object of collection name to rows.
func (s *Storage) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string][]seedRow
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for name, rows := range seed {
		converted := make([]vectorstore.Row, 0, len(rows))
		for _, r := range rows {
			converted = append(converted, vectorstore.Row{ID: r.ID, Document: r.Document, Metadata: r.Metadata})
		}
		s.Add(name, converted...)
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, collection string, q vectorstore.Query) ([]vectorstore.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%s: %w", collection, vectorstore.ErrCollectionNotFound)
	}
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	var out []vectorstore.Row
	for _, r := range rows {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if !matchesWhere(r, q.Where) {
			continue
		}
		if needle != "" && !containsText(r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Storage) Get(ctx context.Context, collection string, ids []string) ([]vectorstore.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%s: %w", collection, vectorstore.ErrCollectionNotFound)
	}
	var out []vectorstore.Row
	for _, id := range ids {
		for _, r := range rows {
			if r.ID == id {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func matchesWhere(r vectorstore.Row, where map[string]string) bool {
	for k, want := range where {
		v, ok := r.Metadata[k]
		if !ok || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func containsText(r vectorstore.Row, needle string) bool {
	if strings.Contains(strings.ToLower(r.Document), needle) {
		return true
	}
	for _, v := range r.Metadata {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}
