package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argos/internal/vectorstore"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Name() string { return "fake" }
func (fakeEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{0.1, 0.2}, nil
}

func newServer(t *testing.T, seen *map[string]any, respond string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"c-1","name":"` + r.PathValue("name") + `"}`))
	})
	handle := func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["_path"] = r.URL.Path
		*seen = body
		_, _ = w.Write([]byte(respond))
	}
	mux.HandleFunc("POST /api/v1/collections/c-1/get", handle)
	mux.HandleFunc("POST /api/v1/collections/c-1/query", handle)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestQueryWithoutKeywordUsesGet(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, &seen, `{"ids":["A1B2C","D3E4F"],"documents":["ECB holds",null],"metadatas":[{"title":"ECB"},null]}`)
	s := NewStorage(Config{URL: srv.URL})

	rows, err := s.Query(context.Background(), "insights", vectorstore.Query{
		Where: map[string]string{"asset_id": "EURUSD", "domain": "macro"},
		Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ECB holds", rows[0].Document)
	assert.Equal(t, "", rows[1].Document)
	assert.Equal(t, "ECB", rows[0].Metadata["title"])

	assert.Equal(t, "/api/v1/collections/c-1/get", seen["_path"])
	assert.EqualValues(t, 5, seen["limit"])
	where := seen["where"].(map[string]any)
	assert.Len(t, where["$and"], 2)
	assert.Nil(t, seen["where_document"])
}

func TestQueryKeywordWithoutEmbedderFiltersDocuments(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, &seen, `{"ids":[],"documents":[],"metadatas":[]}`)
	s := NewStorage(Config{URL: srv.URL})

	_, err := s.Query(context.Background(), "insights", vectorstore.Query{Text: "rates", Where: map[string]string{"asset_id": "EURUSD"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$contains": "rates"}, seen["where_document"])
	assert.Equal(t, map[string]any{"asset_id": "EURUSD"}, seen["where"])
}

func TestQueryKeywordWithEmbedderUsesQuery(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, &seen, `{"ids":[["AB1234X"]],"documents":[["rates falling"]],"metadatas":[[{"asset_id":"EURUSD"}]]}`)
	s := NewStorage(Config{URL: srv.URL, Embedder: fakeEmbedder{}})

	rows, err := s.Query(context.Background(), "insights", vectorstore.Query{Text: "rates", Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AB1234X", rows[0].ID)
	assert.Equal(t, "rates falling", rows[0].Document)
	assert.Equal(t, "/api/v1/collections/c-1/query", seen["_path"])
	assert.EqualValues(t, 3, seen["n_results"])
}

func TestGetByIDs(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, &seen, `{"ids":["AB1234X"],"documents":["x"],"metadatas":[{}]}`)
	s := NewStorage(Config{URL: srv.URL})

	rows, err := s.Get(context.Background(), "insights", []string{"AB1234X"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"AB1234X"}, seen["ids"])
}

func TestMissingCollection(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, &seen, `{}`)
	s := NewStorage(Config{URL: srv.URL})

	_, err := s.Get(context.Background(), "missing", []string{"x"})
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestWhereClause(t *testing.T) {
	assert.Nil(t, whereClause(nil))
	assert.Equal(t, map[string]any{"a": "1"}, whereClause(map[string]string{"a": "1"}))
	assert.Equal(t,
		map[string]any{"$and": []map[string]any{{"a": "1"}, {"b": "2"}}},
		whereClause(map[string]string{"b": "2", "a": "1"}),
	)
}
