package embedding

import "context"

// Embedder turns a keyword query into a vector for stores that only rank by
// similarity. Embeddings are computed by a remote service.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}
