// Package store defines the vector store contract shared by all backends,
// the options vocabulary for its operations, and an in-memory reference
// implementation.
package store

import (
	"context"
	"errors"

	"github.com/aqua777/go-vectorstores/schema"
)

// DefaultTopK is the number of results returned when the caller does not
// request a specific k.
const DefaultTopK = 4

var (
	// ErrMissingSelector is returned by Delete when neither IDs nor filters
	// are given.
	ErrMissingSelector = errors.New("delete requires ids or filters")
	// ErrBothSelectors is returned by Delete when IDs and filters are both
	// given.
	ErrBothSelectors = errors.New("delete accepts ids or filters, not both")
	// ErrInvalidMetadatas is returned by factories when the metadatas slice
	// is neither empty, a single shared map, nor one map per text.
	ErrInvalidMetadatas = errors.New("metadatas must be empty, one shared map, or one per text")
	// ErrNoEmbedder is returned by text operations on a store constructed
	// without an embedder.
	ErrNoEmbedder = errors.New("no embedder configured")
)

// VectorStore is the interface for storing and querying embedded documents.
// Storage, indexing, and similarity ranking belong to the backend; embedding
// belongs to the store's Embedder.
type VectorStore interface {
	// AddDocuments embeds the documents and stores them.
	// Returns the IDs under which the documents were stored.
	AddDocuments(ctx context.Context, docs []schema.Document, opts ...AddOption) ([]string, error)
	// AddVectors stores pre-embedded documents. Callers must supply one
	// vector per document; the pairing is not validated. Zero vectors is a
	// no-op that touches no backend.
	AddVectors(ctx context.Context, vectors [][]float32, docs []schema.Document, opts ...AddOption) ([]string, error)
	// SimilaritySearch returns the k documents most similar to the query text.
	SimilaritySearch(ctx context.Context, query string, k int, opts ...SearchOption) ([]schema.Document, error)
	// SimilaritySearchByVectorWithScore returns the k documents most similar
	// to the query vector together with their similarity scores, in the
	// backend's descending-similarity order.
	SimilaritySearchByVectorWithScore(ctx context.Context, vector []float32, k int, opts ...SearchOption) ([]schema.DocumentWithScore, error)
	// Delete removes documents selected by ID or by metadata filter.
	Delete(ctx context.Context, opts ...DeleteOption) error
}
