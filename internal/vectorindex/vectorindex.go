// Package vectorindex defines the narrow contract the ingestion and answer
// pipelines need from a vector similarity store, plus the shared point and
// match types. Implementations live in subpackages.
package vectorindex

import "context"

// Point is one embedded chunk to be upserted, with its retrieval metadata.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// Match is one similarity query hit.
type Match struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// Filter restricts a query to points whose payload values match exactly.
type Filter map[string]string

// Index is the vector store seen by the rest of the system.
type Index interface {
	// EnsureCollection creates the backing collection if missing. The
	// dimension must match the embedding model's output size.
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, topK int, filter Filter) ([]Match, error)
	// ListURLs returns the distinct "url" payload values across all stored
	// points, i.e. every source URL that has been ingested.
	ListURLs(ctx context.Context) ([]string, error)
}
