package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/aqua777/go-vectorstores/embedding"
	"github.com/aqua777/go-vectorstores/schema"
	"github.com/aqua777/go-vectorstores/store"
)

// jsonMetadataKey is the reserved chromem metadata key carrying the JSON of
// all non-string metadata values, so they survive the string-map round trip.
const jsonMetadataKey = "_meta_json"

// Store is a vector store backed by the embedded chromem-go engine.
type Store struct {
	db          *chromem.DB
	collection  *chromem.Collection
	embedder    embedding.Embedder
	concurrency int
}

// Option configures a Store.
type Option func(*Store)

// WithEmbedder sets the embedder used by the text operations.
func WithEmbedder(embedder embedding.Embedder) Option {
	return func(s *Store) {
		s.embedder = embedder
	}
}

// WithConcurrency sets how many goroutines chromem uses per write batch.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewStore creates a chromem-backed store. An empty persistPath keeps the
// database in memory only; otherwise documents are persisted to that
// directory and reloaded on the next open.
func NewStore(persistPath, collectionName string, opts ...Option) (*Store, error) {
	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create persistent chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	// Embeddings are computed by this module's embedders and passed in
	// explicitly, so the collection gets no embedding function.
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection: %w", err)
	}

	s := &Store{
		db:          db,
		collection:  collection,
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddDocuments embeds the documents and stores them.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, opts ...store.AddOption) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if s.embedder == nil {
		return nil, store.ErrNoEmbedder
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
// fresh UUID. Zero vectors is a no-op. Extra payload fields have no home in
// chromem's document model and are ignored.
func (s *Store) AddVectors(ctx context.Context, vectors [][]float32, docs []schema.Document, opts ...store.AddOption) ([]string, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	chromemDocs := make([]chromem.Document, len(vectors))
	ids := make([]string, len(vectors))
	for i, vector := range vectors {
		doc := docs[i]
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id

		// An empty embedding would make chromem fall back to its own
		// embedding function, which this store never configures.
		if len(vector) == 0 {
			return nil, fmt.Errorf("document %q has no embedding", id)
		}

		meta, err := flattenMetadata(doc.Metadata)
		if err != nil {
			return nil, err
		}

		chromemDocs[i] = chromem.Document{
			ID:        id,
			Content:   doc.Text,
			Metadata:  meta,
			Embedding: vector,
		}
	}

	if err := s.collection.AddDocuments(ctx, chromemDocs, s.concurrency); err != nil {
		return nil, fmt.Errorf("failed to add documents to chromem collection: %w", err)
	}
	return ids, nil
}

// SimilaritySearch embeds the query and returns the k most similar
// documents.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, opts ...store.SearchOption) ([]schema.Document, error) {
	results, err := s.SimilaritySearchWithScore(ctx, query, k, opts...)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, len(results))
	for i, result := range results {
		docs[i] = result.Document
	}
	return docs, nil
}

// SimilaritySearchWithScore embeds the query and returns the k most similar
// documents with their cosine similarity scores.
func (s *Store) SimilaritySearchWithScore(ctx context.Context, query string, k int, opts ...store.SearchOption) ([]schema.DocumentWithScore, error) {
	if s.embedder == nil {
		return nil, store.ErrNoEmbedder
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.SimilaritySearchByVectorWithScore(ctx, queryVector, k, opts...)
}

// SimilaritySearchByVectorWithScore returns the k documents closest to the
// given vector. An empty vector or an empty collection returns an empty
// result.
func (s *Store) SimilaritySearchByVectorWithScore(ctx context.Context, queryVector []float32, k int, opts ...store.SearchOption) ([]schema.DocumentWithScore, error) {
	if len(queryVector) == 0 {
		return []schema.DocumentWithScore{}, nil
	}
	if k <= 0 {
		k = store.DefaultTopK
	}
	options := store.ApplySearchOptions(opts...)

	where, err := whereFromFilters(options.Filters)
	if err != nil {
		return nil, err
	}

	results, err := s.queryEmbedding(ctx, queryVector, k, where)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.DocumentWithScore, 0, len(results))
	for _, result := range results {
		if options.ScoreThreshold > 0 && result.Similarity < options.ScoreThreshold {
			continue
		}
		docs = append(docs, schema.DocumentWithScore{
			Document: documentFromResult(result),
			Score:    result.Similarity,
		})
	}
	return docs, nil
}

// MaxMarginalRelevanceSearch embeds the query, fetches candidates with
// their stored embeddings, and returns a diversity-reranked selection in
// selection order.
func (s *Store) MaxMarginalRelevanceSearch(ctx context.Context, query string, opts ...store.MMROption) ([]schema.Document, error) {
	if s.embedder == nil {
		return nil, store.ErrNoEmbedder
	}
	options := store.ApplyMMROptions(opts...)

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVector) == 0 {
		return []schema.Document{}, nil
	}

	where, err := whereFromFilters(options.Filters)
	if err != nil {
		return nil, err
	}

	results, err := s.queryEmbedding(ctx, queryVector, options.FetchK, where)
	if err != nil {
		return nil, err
	}

	candidates := make([][]float32, len(results))
	for i, result := range results {
		candidates[i] = result.Embedding
	}

	selected := embedding.MaximalMarginalRelevance(queryVector, candidates, options.Lambda, options.K)

	docs := make([]schema.Document, 0, len(selected))
	for _, idx := range selected {
		docs = append(docs, documentFromResult(results[idx]))
	}
	return docs, nil
}

// queryEmbedding wraps chromem's QueryEmbedding, clamping k to the
// collection size since chromem rejects over-asking.
func (s *Store) queryEmbedding(ctx context.Context, queryVector []float32, k int, where map[string]string) ([]chromem.Result, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, queryVector, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromem collection: %w", err)
	}
	return results, nil
}

// Delete removes documents selected by ID or by eq-only metadata filters.
func (s *Store) Delete(ctx context.Context, opts ...store.DeleteOption) error {
	options := store.ApplyDeleteOptions(opts...)
	if err := options.Validate(); err != nil {
		return err
	}

	if len(options.IDs) > 0 {
		if err := s.collection.Delete(ctx, nil, nil, options.IDs...); err != nil {
			return fmt.Errorf("failed to delete from chromem collection: %w", err)
		}
		return nil
	}

	where, err := whereFromFilters(options.Filters)
	if err != nil {
		return err
	}
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete from chromem collection: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	return s.collection.Count()
}

// whereFromFilters converts metadata filters to chromem's exact-match
// string map. chromem combines clauses with AND and matches strings only,
// so or-conditions, non-eq operators, and non-string values are rejected.
func whereFromFilters(filters *schema.MetadataFilters) (map[string]string, error) {
	if filters == nil || len(filters.Filters) == 0 {
		return nil, nil
	}
	if filters.Condition == schema.FilterConditionOr && len(filters.Filters) > 1 {
		return nil, errors.New("or-filters are not supported by the chromem backend")
	}

	where := make(map[string]string, len(filters.Filters))
	for _, f := range filters.Filters {
		if f.Operator != schema.FilterOperatorEq && f.Operator != "" {
			return nil, fmt.Errorf("filter operator %q is not supported by the chromem backend", f.Operator)
		}
		value, ok := f.Value.(string)
		if !ok {
			return nil, fmt.Errorf("chromem filters require string values, got %T for %q", f.Value, f.Key)
		}
		where[f.Key] = value
	}
	return where, nil
}

// flattenMetadata converts a metadata map to chromem's string map. String
// values map directly; everything else is packed as JSON under the reserved
// key so expandMetadata can restore it.
func flattenMetadata(meta map[string]interface{}) (map[string]string, error) {
	if len(meta) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(meta))
	rest := make(map[string]interface{})
	for k, v := range meta {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			rest[k] = v
		}
	}

	if len(rest) > 0 {
		encoded, err := json.Marshal(rest)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		out[jsonMetadataKey] = string(encoded)
	}
	return out, nil
}

// expandMetadata is the inverse of flattenMetadata. Values restored from
// the JSON blob follow JSON typing, so numbers come back as float64.
func expandMetadata(meta map[string]string) map[string]interface{} {
	if len(meta) == 0 {
		return nil
	}

	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if k == jsonMetadataKey {
			continue
		}
		out[k] = v
	}

	if encoded, ok := meta[jsonMetadataKey]; ok {
		var rest map[string]interface{}
		if err := json.Unmarshal([]byte(encoded), &rest); err == nil {
			for k, v := range rest {
				out[k] = v
			}
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func documentFromResult(result chromem.Result) schema.Document {
	return schema.Document{
		ID:       result.ID,
		Text:     result.Content,
		Metadata: expandMetadata(result.Metadata),
	}
}

// Ensure Store implements the interface.
var _ store.VectorStore = (*Store)(nil)
