package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aqua777/go-vectorstores/schema"
)

// TextReader reads plain text files and converts each file to a document.
type TextReader struct {
	// InputFiles is a list of text file paths to read
	InputFiles []string
	// ExtraMetadata is additional metadata to add to all documents
	ExtraMetadata map[string]interface{}
}

// NewTextReader creates a new TextReader for specific files.
func NewTextReader(inputFiles ...string) *TextReader {
	return &TextReader{
		InputFiles: inputFiles,
	}
}

// WithExtraMetadata sets extra metadata added to every document.
func (r *TextReader) WithExtraMetadata(metadata map[string]interface{}) *TextReader {
	r.ExtraMetadata = metadata
	return r
}

// LoadData loads all configured files and returns one document per file.
func (r *TextReader) LoadData() ([]schema.Document, error) {
	if len(r.InputFiles) == 0 {
		return nil, fmt.Errorf("no input files specified")
	}

	var docs []schema.Document
	for _, file := range r.InputFiles {
		fileDocs, err := r.LoadFromFile(file)
		if err != nil {
			return nil, NewReaderError(file, "failed to load text file", err)
		}
		docs = append(docs, fileDocs...)
	}

	return docs, nil
}

// LoadFromFile loads a single text file.
func (r *TextReader) LoadFromFile(filePath string) ([]schema.Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}

	metadata := map[string]interface{}{
		"file_path": absPath,
		"file_name": filepath.Base(filePath),
		"file_type": strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), "."),
	}
	for k, v := range r.ExtraMetadata {
		metadata[k] = v
	}

	doc := schema.NewDocument(strings.TrimSpace(string(content)), metadata)
	return []schema.Document{doc}, nil
}

// Metadata returns reader metadata.
func (r *TextReader) Metadata() ReaderMetadata {
	return ReaderMetadata{
		Name:                "TextReader",
		SupportedExtensions: []string{".txt", ".text", ".md", ".markdown", ".rst", ".log"},
		Description:         "Reads plain text files as documents",
	}
}

var _ Reader = (*TextReader)(nil)
var _ FileReader = (*TextReader)(nil)
var _ ReaderWithMetadata = (*TextReader)(nil)
