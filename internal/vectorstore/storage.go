package vectorstore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned when the named collection does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

// Row is one stored item in store-native, uncoerced form.
type Row struct {
	ID       string
	Document string
	Metadata map[string]any
}

// Query selects rows from one collection. An empty Text means no ranking
// preference: rows come back in store order.
type Query struct {
	Text  string
	Where map[string]string
	Limit int
}

// Store is the vector-store capability the retrieval core consumes.
type Store interface {
	Query(ctx context.Context, collection string, q Query) ([]Row, error)
	Get(ctx context.Context, collection string, ids []string) ([]Row, error)
}
