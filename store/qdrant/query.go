package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/aqua777/go-vectorstores/embedding"
	"github.com/aqua777/go-vectorstores/schema"
	"github.com/aqua777/go-vectorstores/store"
)

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
// documents with their similarity scores.
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
// given vector. An empty vector returns an empty result without calling the
// service; a non-positive k falls back to the default.
func (s *Store) SimilaritySearchByVectorWithScore(ctx context.Context, queryVector []float32, k int, opts ...store.SearchOption) ([]schema.DocumentWithScore, error) {
	if len(queryVector) == 0 {
		return []schema.DocumentWithScore{}, nil
	}
	if k <= 0 {
		k = store.DefaultTopK
	}
	options := store.ApplySearchOptions(opts...)

	filter, err := s.translateFilters(options.Filters)
	if err != nil {
		return nil, err
	}

	req := &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayloadInclude(s.contentKey, s.metadataKey),
		WithVectors:    qdrant.NewWithVectors(false),
	}
	if options.ScoreThreshold > 0 {
		req.ScoreThreshold = qdrant.PtrOf(options.ScoreThreshold)
	}

	points, err := s.client.Query(ctx, req)
	if err != nil {
		s.logger.Error("failed to query points", "collection", s.collectionName, "error", err)
		return nil, wrapRemoteErr("query", s.collectionName, err)
	}

	results := make([]schema.DocumentWithScore, len(points))
	for i, point := range points {
		results[i] = schema.DocumentWithScore{
			Document: s.documentFromPoint(point),
			Score:    point.GetScore(),
		}
	}
	return results, nil
}

// MaxMarginalRelevanceSearch embeds the query and returns documents
// reranked for diversity. It fetches options.FetchK candidates with their
// stored vectors and greedily selects options.K of them; results keep the
// selection order.
func (s *Store) MaxMarginalRelevanceSearch(ctx context.Context, query string, opts ...store.MMROption) ([]schema.Document, error) {
	results, err := s.MaxMarginalRelevanceSearchWithScore(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, len(results))
	for i, result := range results {
		docs[i] = result.Document
	}
	return docs, nil
}

// MaxMarginalRelevanceSearchWithScore is MaxMarginalRelevanceSearch keeping
// the original similarity score of each selected document.
func (s *Store) MaxMarginalRelevanceSearchWithScore(ctx context.Context, query string, opts ...store.MMROption) ([]schema.DocumentWithScore, error) {
	if s.embedder == nil {
		return nil, store.ErrNoEmbedder
	}
	options := store.ApplyMMROptions(opts...)

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVector) == 0 {
		return []schema.DocumentWithScore{}, nil
	}

	if err := s.ensureCollection(ctx, uint64(len(queryVector))); err != nil {
		return nil, err
	}

	filter, err := s.translateFilters(options.Filters)
	if err != nil {
		return nil, err
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(options.FetchK)),
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayloadInclude(s.contentKey, s.metadataKey),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		s.logger.Error("failed to query points", "collection", s.collectionName, "error", err)
		return nil, wrapRemoteErr("query", s.collectionName, err)
	}

	candidates := make([][]float32, len(points))
	for i, point := range points {
		candidates[i] = point.GetVectors().GetVector().GetData()
	}

	selected := embedding.MaximalMarginalRelevance(queryVector, candidates, options.Lambda, options.K)

	results := make([]schema.DocumentWithScore, 0, len(selected))
	for _, idx := range selected {
		point := points[idx]
		results = append(results, schema.DocumentWithScore{
			Document: s.documentFromPoint(point),
			Score:    point.GetScore(),
		})
	}
	return results, nil
}
