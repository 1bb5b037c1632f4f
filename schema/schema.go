package schema

import (
	"github.com/google/uuid"
)

// Document represents a piece of text with associated metadata.
// It is the unit of storage and retrieval for vector stores.
type Document struct {
	// ID is the unique identifier of the document.
	// Stores generate one on write when it is empty.
	ID string `json:"id,omitempty"`
	// Text is the document content.
	Text string `json:"text"`
	// Metadata holds arbitrary key/value pairs attached to the document.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewDocument creates a new Document with the given text and metadata.
func NewDocument(text string, metadata map[string]interface{}) Document {
	return Document{
		Text:     text,
		Metadata: metadata,
	}
}

// NewDocumentWithID creates a new Document with a generated UUID.
func NewDocumentWithID(text string, metadata map[string]interface{}) Document {
	return Document{
		ID:       uuid.New().String(),
		Text:     text,
		Metadata: metadata,
	}
}

// DocumentWithScore pairs a document with a similarity score.
// Score semantics follow the producing store; for cosine-based stores
// higher means more similar.
type DocumentWithScore struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}

// CopyMetadata returns a shallow copy of the document's metadata.
// It never returns nil.
func (d Document) CopyMetadata() map[string]interface{} {
	meta := make(map[string]interface{}, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	return meta
}
