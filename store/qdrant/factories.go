package qdrant

import (
	"context"
	"fmt"

	"github.com/aqua777/go-vectorstores/schema"
	"github.com/aqua777/go-vectorstores/store"
)

// NewFromTexts creates a store and seeds it with the given texts. The
// metadatas slice may be empty, hold one map shared by all texts, or hold
// one map per text. Returns the store and the IDs of the stored documents.
func NewFromTexts(ctx context.Context, texts []string, metadatas []map[string]interface{}, opts ...Option) (*Store, []string, error) {
	docs, err := documentsFromTexts(texts, metadatas)
	if err != nil {
		return nil, nil, err
	}
	return NewFromDocuments(ctx, docs, opts...)
}

// NewFromDocuments creates a store and seeds it with the given documents.
// Returns the store and the IDs of the stored documents.
func NewFromDocuments(ctx context.Context, docs []schema.Document, opts ...Option) (*Store, []string, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, nil, err
	}

	ids, err := s.AddDocuments(ctx, docs)
	if err != nil {
		return nil, nil, err
	}
	return s, ids, nil
}

// NewFromExistingCollection creates a store over a collection that is
// expected to hold data already, creating it when it does not exist.
func NewFromExistingCollection(ctx context.Context, opts ...Option) (*Store, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func documentsFromTexts(texts []string, metadatas []map[string]interface{}) ([]schema.Document, error) {
	if len(metadatas) > 1 && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("%d metadatas for %d texts: %w", len(metadatas), len(texts), store.ErrInvalidMetadatas)
	}

	docs := make([]schema.Document, len(texts))
	for i, text := range texts {
		var meta map[string]interface{}
		switch len(metadatas) {
		case 0:
		case 1:
			meta = metadatas[0]
		default:
			meta = metadatas[i]
		}
		docs[i] = schema.NewDocument(text, meta)
	}
	return docs, nil
}
