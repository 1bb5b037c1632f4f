package embedding

import "context"

// Embedder is the interface for generating text embeddings.
// This is the basic interface that all embedding implementations must satisfy.
type Embedder interface {
	// EmbedDocuments generates one embedding per input text.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery generates an embedding for a given query.
	// This is often the same as embedding a document, but some models treat them differently.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// EmbedderWithInfo extends Embedder with metadata capabilities.
type EmbedderWithInfo interface {
	Embedder
	// Info returns information about the model's capabilities.
	Info() EmbeddingInfo
}
