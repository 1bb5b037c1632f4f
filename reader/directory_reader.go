package reader

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aqua777/go-vectorstores/schema"
)

// DirectoryReader walks a directory tree and loads every file that has a
// reader registered for its extension. Plain text and PDF readers are
// registered by default.
type DirectoryReader struct {
	// InputDir is the directory to walk
	InputDir string
	// Recursive determines if subdirectories should be searched
	Recursive bool
	// Extensions restricts loading to the given extensions. Empty means
	// every extension with a registered reader.
	Extensions []string
	// IncludeHidden determines if hidden files and directories are read
	IncludeHidden bool
	// ExtraMetadata is additional metadata to add to all documents
	ExtraMetadata map[string]interface{}

	readers map[string]FileReader
}

// NewDirectoryReader creates a reader for the given directory. It recurses
// into subdirectories and skips hidden files by default.
func NewDirectoryReader(inputDir string) *DirectoryReader {
	text := NewTextReader()
	return &DirectoryReader{
		InputDir:  inputDir,
		Recursive: true,
		readers: map[string]FileReader{
			".txt":      text,
			".text":     text,
			".md":       text,
			".markdown": text,
			".rst":      text,
			".log":      text,
			".pdf":      NewPDFReader(),
		},
	}
}

// WithRecursive sets whether subdirectories are searched.
func (r *DirectoryReader) WithRecursive(recursive bool) *DirectoryReader {
	r.Recursive = recursive
	return r
}

// WithExtensions restricts loading to the given extensions.
func (r *DirectoryReader) WithExtensions(extensions ...string) *DirectoryReader {
	r.Extensions = extensions
	return r
}

// WithIncludeHidden sets whether hidden files and directories are read.
func (r *DirectoryReader) WithIncludeHidden(include bool) *DirectoryReader {
	r.IncludeHidden = include
	return r
}

// WithExtraMetadata sets extra metadata added to every document.
func (r *DirectoryReader) WithExtraMetadata(metadata map[string]interface{}) *DirectoryReader {
	r.ExtraMetadata = metadata
	return r
}

// WithFileReader registers a reader for an extension, replacing any
// default registration.
func (r *DirectoryReader) WithFileReader(ext string, fileReader FileReader) *DirectoryReader {
	if r.readers == nil {
		r.readers = make(map[string]FileReader)
	}
	r.readers[normalizeExt(ext)] = fileReader
	return r
}

// LoadData walks the directory and loads all matching files.
func (r *DirectoryReader) LoadData() ([]schema.Document, error) {
	files, err := r.listFiles()
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	for _, file := range files {
		fileDocs, err := r.loadFile(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}

	return docs, nil
}

// LoadDataWithContext walks the directory with cancellation support.
func (r *DirectoryReader) LoadDataWithContext(ctx context.Context) ([]schema.Document, error) {
	files, err := r.listFiles()
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	for _, file := range files {
		select {
		case <-ctx.Done():
			return docs, ctx.Err()
		default:
			fileDocs, err := r.loadFile(file)
			if err != nil {
				return nil, err
			}
			docs = append(docs, fileDocs...)
		}
	}

	return docs, nil
}

// LazyLoadData yields documents one at a time as files are loaded.
func (r *DirectoryReader) LazyLoadData() (<-chan schema.Document, <-chan error) {
	docChan := make(chan schema.Document)
	errChan := make(chan error, 1)

	go func() {
		defer close(docChan)
		defer close(errChan)

		files, err := r.listFiles()
		if err != nil {
			errChan <- err
			return
		}

		for _, file := range files {
			docs, err := r.loadFile(file)
			if err != nil {
				errChan <- err
				return
			}
			for _, doc := range docs {
				docChan <- doc
			}
		}
	}()

	return docChan, errChan
}

// Metadata returns reader metadata.
func (r *DirectoryReader) Metadata() ReaderMetadata {
	exts := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return ReaderMetadata{
		Name:                "DirectoryReader",
		SupportedExtensions: exts,
		Description:         "Walks a directory tree and loads files by extension",
	}
}

// listFiles returns all files in the tree that pass the extension and
// hidden-file filters and have a registered reader.
func (r *DirectoryReader) listFiles() ([]string, error) {
	if r.InputDir == "" {
		return nil, fmt.Errorf("no input directory specified")
	}

	allowed := make(map[string]bool, len(r.Extensions))
	for _, ext := range r.Extensions {
		allowed[normalizeExt(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(r.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == r.InputDir {
				return nil
			}
			if !r.Recursive {
				return filepath.SkipDir
			}
			if isHidden(d.Name()) && !r.IncludeHidden {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(d.Name()) && !r.IncludeHidden {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if len(allowed) > 0 && !allowed[ext] {
			return nil
		}
		if _, ok := r.readers[ext]; !ok {
			return nil
		}

		files = append(files, path)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", r.InputDir, err)
	}

	return files, nil
}

// loadFile dispatches a file to the reader registered for its extension
// and merges extra metadata into the results.
func (r *DirectoryReader) loadFile(path string) ([]schema.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fileReader, ok := r.readers[ext]
	if !ok {
		return nil, NewReaderError(path, "no reader registered for extension", nil)
	}

	docs, err := fileReader.LoadFromFile(path)
	if err != nil {
		return nil, NewReaderError(path, "failed to load file", err)
	}

	if len(r.ExtraMetadata) > 0 {
		for i := range docs {
			if docs[i].Metadata == nil {
				docs[i].Metadata = make(map[string]interface{}, len(r.ExtraMetadata))
			}
			for k, v := range r.ExtraMetadata {
				docs[i].Metadata[k] = v
			}
		}
	}

	return docs, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

var _ Reader = (*DirectoryReader)(nil)
var _ ReaderWithContext = (*DirectoryReader)(nil)
var _ LazyReader = (*DirectoryReader)(nil)
var _ ReaderWithMetadata = (*DirectoryReader)(nil)
