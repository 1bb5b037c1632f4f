package store

import (
	"context"

	"github.com/aqua777/go-vectorstores/schema"
)

// Retriever fetches the documents most relevant to a query from a
// VectorStore, with a fixed k and a fixed set of search options.
type Retriever struct {
	store VectorStore
	topK  int
	opts  []SearchOption
}

// NewRetriever creates a Retriever returning up to topK documents per query.
// The search options apply to every retrieval.
func NewRetriever(s VectorStore, topK int, opts ...SearchOption) Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return Retriever{store: s, topK: topK, opts: opts}
}

// Retrieve returns the documents most relevant to the query.
func (r Retriever) Retrieve(ctx context.Context, query string) ([]schema.Document, error) {
	return r.store.SimilaritySearch(ctx, query, r.topK, r.opts...)
}
