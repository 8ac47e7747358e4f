package qdrant

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
	return []float64{1, 0}, nil
}

type captured struct {
	path string
	body map[string]any
}

func newServer(t *testing.T, got *captured, respond string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/missing/points/scroll" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		got.path = r.URL.Path
		got.body = map[string]any{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		assert.Equal(t, "k", r.Header.Get("api-key"))
		_, _ = w.Write([]byte(respond))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const scrollReply = `{"result":{"points":[
	{"id":1,"payload":{"id":"AB1234X","text":"rates falling","asset_id":"EURUSD"}},
	{"id":"7c9e","payload":{"document":"oil up"}}
]}}`

func TestQueryScrollsWithFilter(t *testing.T) {
	var got captured
	srv := newServer(t, &got, scrollReply)
	s := NewStorage(Config{URL: srv.URL, APIKey: "k"})

	rows, err := s.Query(context.Background(), "insights", vectorstore.Query{Where: map[string]string{"asset_id": "EURUSD"}, Limit: 4})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AB1234X", rows[0].ID)
	assert.Equal(t, "rates falling", rows[0].Document)
	assert.Equal(t, "EURUSD", rows[0].Metadata["asset_id"])
	assert.NotContains(t, rows[0].Metadata, "text")
	assert.Equal(t, "7c9e", rows[1].ID, "point id used when payload has none")
	assert.Equal(t, "oil up", rows[1].Document)

	assert.Equal(t, "/collections/insights/points/scroll", got.path)
	assert.EqualValues(t, 4, got.body["limit"])
	must := got.body["filter"].(map[string]any)["must"].([]any)
	assert.Len(t, must, 1)
}

func TestQueryKeywordWithoutEmbedderAddsTextMatch(t *testing.T) {
	var got captured
	srv := newServer(t, &got, scrollReply)
	s := NewStorage(Config{URL: srv.URL, APIKey: "k"})

	_, err := s.Query(context.Background(), "insights", vectorstore.Query{Text: "rates"})
	require.NoError(t, err)
	must := got.body["filter"].(map[string]any)["must"].([]any)
	require.Len(t, must, 1)
	assert.Equal(t, "text", must[0].(map[string]any)["key"])
}

func TestQueryKeywordWithEmbedderSearches(t *testing.T) {
	var got captured
	srv := newServer(t, &got, `{"result":[{"id":3,"score":0.9,"payload":{"id":"9QZ7T","text":"euro"}}]}`)
	s := NewStorage(Config{URL: srv.URL, APIKey: "k", Embedder: fakeEmbedder{}})

	rows, err := s.Query(context.Background(), "Perigon_FullArticles", vectorstore.Query{Text: "euro"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "9QZ7T", rows[0].ID)
	assert.Equal(t, "/collections/Perigon_FullArticles/points/search", got.path)
	assert.Len(t, got.body["vector"], 2)
}

func TestGetOrdersByRequest(t *testing.T) {
	var got captured
	srv := newServer(t, &got, `{"result":{"points":[
		{"id":1,"payload":{"id":"A1B2C"}},
		{"id":2,"payload":{"id":"D3E4F"}}
	]}}`)
	s := NewStorage(Config{URL: srv.URL, APIKey: "k"})

	rows, err := s.Get(context.Background(), "insights", []string{"D3E4F", "A1B2C"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "D3E4F", rows[0].ID)
	assert.Equal(t, "A1B2C", rows[1].ID)
}

func TestMissingCollection(t *testing.T) {
	var got captured
	srv := newServer(t, &got, `{}`)
	s := NewStorage(Config{URL: srv.URL, APIKey: "k"})

	_, err := s.Get(context.Background(), "missing", []string{"x"})
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}
