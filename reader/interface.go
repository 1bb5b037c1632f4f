// Package reader loads files from disk into documents ready for a vector
// store. It ships a plain text reader, a PDF reader and a directory reader
// that walks a tree and dispatches files by extension.
package reader

import (
	"context"

	"github.com/aqua777/go-vectorstores/schema"
)

// Reader loads documents from a configured source.
type Reader interface {
	LoadData() ([]schema.Document, error)
}

// ReaderWithContext loads documents with cancellation support.
type ReaderWithContext interface {
	LoadDataWithContext(ctx context.Context) ([]schema.Document, error)
}

// LazyReader yields documents one at a time instead of materializing
// the whole result.
type LazyReader interface {
	LazyLoadData() (<-chan schema.Document, <-chan error)
}

// FileReader loads documents from a single file.
type FileReader interface {
	LoadFromFile(filePath string) ([]schema.Document, error)
}

// ReaderMetadata describes a reader and the file types it handles.
type ReaderMetadata struct {
	Name                string
	SupportedExtensions []string
	Description         string
}

// ReaderWithMetadata exposes reader metadata.
type ReaderWithMetadata interface {
	Metadata() ReaderMetadata
}

// ReaderError represents an error during document loading.
type ReaderError struct {
	Source  string // file path that caused the error
	Message string
	Err     error
}

func (e *ReaderError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Source + ": " + e.Message
}

func (e *ReaderError) Unwrap() error {
	return e.Err
}

// NewReaderError creates a reader error for the given source file.
func NewReaderError(source, message string, err error) *ReaderError {
	return &ReaderError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}
