package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aqua777/go-vectorstores/embedding"
	"github.com/aqua777/go-vectorstores/schema"
)

// SimpleVectorStore is an in-memory vector store with brute-force cosine
// ranking. It serves as the zero-dependency reference backend and the test
// stand-in for the real adapters.
type SimpleVectorStore struct {
	mu       sync.RWMutex
	embedder embedding.Embedder
	entries  map[string]simpleEntry
}

type simpleEntry struct {
	doc    schema.Document
	vector []float32
}

// NewSimpleVectorStore creates a new SimpleVectorStore. The embedder may be
// nil when only the vector-based operations are used.
func NewSimpleVectorStore(embedder embedding.Embedder) *SimpleVectorStore {
	return &SimpleVectorStore{
		embedder: embedder,
		entries:  make(map[string]simpleEntry),
	}
}

// AddDocuments embeds the documents and stores them.
func (s *SimpleVectorStore) AddDocuments(ctx context.Context, docs []schema.Document, opts ...AddOption) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	return s.AddVectors(ctx, vectors, docs, opts...)
}

// AddVectors stores pre-embedded documents. Documents without an ID get a
// fresh UUID. Extra payload options only apply to payload-based backends and
// are ignored here.
func (s *SimpleVectorStore) AddVectors(ctx context.Context, vectors [][]float32, docs []schema.Document, opts ...AddOption) ([]string, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(vectors))
	for i, vector := range vectors {
		doc := docs[i]
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		s.entries[doc.ID] = simpleEntry{doc: doc, vector: vector}
		ids = append(ids, doc.ID)
	}

	return ids, nil
}

// SimilaritySearch embeds the query and returns the k most similar documents.
func (s *SimpleVectorStore) SimilaritySearch(ctx context.Context, query string, k int, opts ...SearchOption) ([]schema.Document, error) {
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	withScores, err := s.SimilaritySearchByVectorWithScore(ctx, vector, k, opts...)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, 0, len(withScores))
	for _, r := range withScores {
		docs = append(docs, r.Document)
	}
	return docs, nil
}

// SimilaritySearchByVectorWithScore ranks all stored vectors against the
// query vector. An empty query vector returns an empty result.
func (s *SimpleVectorStore) SimilaritySearchByVectorWithScore(ctx context.Context, vector []float32, k int, opts ...SearchOption) ([]schema.DocumentWithScore, error) {
	if len(vector) == 0 {
		return []schema.DocumentWithScore{}, nil
	}
	options := ApplySearchOptions(opts...)
	if k <= 0 {
		k = DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Stable candidate order keeps equal-score results deterministic.
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	candidateIDs := make([]string, 0, len(ids))
	candidateVectors := make([][]float32, 0, len(ids))
	for _, id := range ids {
		entry := s.entries[id]
		if len(entry.vector) == 0 {
			continue
		}
		if !options.Filters.Matches(entry.doc.Metadata) {
			continue
		}
		candidateIDs = append(candidateIDs, id)
		candidateVectors = append(candidateVectors, entry.vector)
	}
	if len(candidateVectors) == 0 {
		return []schema.DocumentWithScore{}, nil
	}

	indices, scores, err := embedding.TopKSimilar(vector, candidateVectors, k, embedding.SimilarityTypeCosine)
	if err != nil {
		return nil, fmt.Errorf("failed to rank candidates: %w", err)
	}

	results := make([]schema.DocumentWithScore, 0, len(indices))
	for i, idx := range indices {
		if options.ScoreThreshold > 0 && scores[i] < options.ScoreThreshold {
			continue
		}
		results = append(results, schema.DocumentWithScore{
			Document: s.entries[candidateIDs[idx]].doc,
			Score:    scores[i],
		})
	}
	return results, nil
}

// Delete removes documents selected by ID or by metadata filter.
func (s *SimpleVectorStore) Delete(ctx context.Context, opts ...DeleteOption) error {
	options := ApplyDeleteOptions(opts...)
	if err := options.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(options.IDs) > 0 {
		for _, id := range options.IDs {
			delete(s.entries, id)
		}
		return nil
	}

	for id, entry := range s.entries {
		if options.Filters.Matches(entry.doc.Metadata) {
			delete(s.entries, id)
		}
	}
	return nil
}

// Count returns the number of stored documents.
func (s *SimpleVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure SimpleVectorStore implements the interface.
var _ VectorStore = (*SimpleVectorStore)(nil)
