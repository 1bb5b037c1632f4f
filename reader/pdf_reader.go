package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aqua777/go-vectorstores/schema"
	"github.com/ledongthuc/pdf"
)

// docInfoFields maps PDF document information dictionary keys to the
// metadata keys used on loaded documents.
var docInfoFields = map[string]string{
	"Title":        "pdf_title",
	"Author":       "pdf_author",
	"Subject":      "pdf_subject",
	"Keywords":     "pdf_keywords",
	"Creator":      "pdf_creator",
	"Producer":     "pdf_producer",
	"CreationDate": "pdf_creation_date",
	"ModDate":      "pdf_mod_date",
}

// PDFReader reads PDF files and converts them to documents.
// It uses the ledongthuc/pdf library for text extraction.
type PDFReader struct {
	// InputFiles is a list of PDF file paths to read
	InputFiles []string
	// InputDir is a directory containing PDF files
	InputDir string
	// Recursive determines if subdirectories should be searched
	Recursive bool
	// SplitByPage creates a separate document for each page
	SplitByPage bool
	// IncludeDocInfo merges the PDF document information dictionary
	// (title, author, dates) into document metadata
	IncludeDocInfo bool
	// ExtraMetadata is additional metadata to add to all documents
	ExtraMetadata map[string]interface{}
}

// NewPDFReader creates a new PDFReader for specific files.
func NewPDFReader(inputFiles ...string) *PDFReader {
	return &PDFReader{
		InputFiles: inputFiles,
		Recursive:  false,
	}
}

// NewPDFReaderFromDir creates a new PDFReader for a directory.
func NewPDFReaderFromDir(inputDir string, recursive bool) *PDFReader {
	return &PDFReader{
		InputDir:  inputDir,
		Recursive: recursive,
	}
}

// WithSplitByPage enables splitting by page.
func (r *PDFReader) WithSplitByPage(split bool) *PDFReader {
	r.SplitByPage = split
	return r
}

// WithDocInfo enables document information extraction into metadata.
func (r *PDFReader) WithDocInfo(include bool) *PDFReader {
	r.IncludeDocInfo = include
	return r
}

// WithExtraMetadata sets extra metadata added to every document.
func (r *PDFReader) WithExtraMetadata(metadata map[string]interface{}) *PDFReader {
	r.ExtraMetadata = metadata
	return r
}

// LoadData loads PDF files and returns documents.
func (r *PDFReader) LoadData() ([]schema.Document, error) {
	files, err := r.getFiles()
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	for _, file := range files {
		fileDocs, err := r.loadFile(file)
		if err != nil {
			return nil, NewReaderError(file, "failed to load PDF file", err)
		}
		docs = append(docs, fileDocs...)
	}

	return docs, nil
}

// LoadDataWithContext loads PDF files with cancellation support.
func (r *PDFReader) LoadDataWithContext(ctx context.Context) ([]schema.Document, error) {
	files, err := r.getFiles()
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
				return nil, NewReaderError(file, "failed to load PDF file", err)
			}
			docs = append(docs, fileDocs...)
		}
	}

	return docs, nil
}

// LoadFromFile loads a single PDF file.
func (r *PDFReader) LoadFromFile(filePath string) ([]schema.Document, error) {
	return r.loadFile(filePath)
}

// Metadata returns reader metadata.
func (r *PDFReader) Metadata() ReaderMetadata {
	return ReaderMetadata{
		Name:                "PDFReader",
		SupportedExtensions: []string{".pdf"},
		Description:         "Reads PDF files and extracts text content",
	}
}

// getFiles returns all PDF files to process.
func (r *PDFReader) getFiles() ([]string, error) {
	if len(r.InputFiles) > 0 {
		return r.InputFiles, nil
	}

	if r.InputDir == "" {
		return nil, fmt.Errorf("no input files or directory specified")
	}

	var files []string
	err := filepath.Walk(r.InputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != r.InputDir && !r.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.ToLower(filepath.Ext(path)) == ".pdf" {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}

// loadFile loads a single PDF file and returns documents.
func (r *PDFReader) loadFile(filePath string) ([]schema.Document, error) {
	f, pdfReader, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}

	baseMetadata := map[string]interface{}{
		"file_path":   absPath,
		"file_name":   filepath.Base(filePath),
		"file_type":   "pdf",
		"total_pages": numPages,
	}

	if r.IncludeDocInfo {
		for key, value := range docInfo(pdfReader) {
			if metaKey, ok := docInfoFields[key]; ok {
				baseMetadata[metaKey] = value
			}
		}
	}

	for k, v := range r.ExtraMetadata {
		baseMetadata[k] = v
	}

	if r.SplitByPage {
		return r.loadByPage(pdfReader, numPages, baseMetadata)
	}

	return r.loadWholeFile(pdfReader, numPages, baseMetadata)
}

// loadByPage loads each page as a separate document. Pages that fail to
// decode or contain no text are skipped.
func (r *PDFReader) loadByPage(pdfReader *pdf.Reader, numPages int, baseMetadata map[string]interface{}) ([]schema.Document, error) {
	var docs []schema.Document

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		metadata := make(map[string]interface{}, len(baseMetadata)+1)
		for k, v := range baseMetadata {
			metadata[k] = v
		}
		metadata["page_number"] = pageNum

		docs = append(docs, schema.NewDocument(text, metadata))
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no text content found in PDF")
	}

	return docs, nil
}

// loadWholeFile loads the entire PDF as a single document.
func (r *PDFReader) loadWholeFile(pdfReader *pdf.Reader, numPages int, baseMetadata map[string]interface{}) ([]schema.Document, error) {
	var textBuilder strings.Builder

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			if textBuilder.Len() > 0 {
				textBuilder.WriteString("\n\n")
			}
			textBuilder.WriteString(text)
		}
	}

	fullText := strings.TrimSpace(textBuilder.String())
	if fullText == "" {
		return nil, fmt.Errorf("no text content found in PDF")
	}

	return []schema.Document{schema.NewDocument(fullText, baseMetadata)}, nil
}

// docInfo extracts the document information dictionary from the PDF
// trailer, keyed by the PDF-native field names.
func docInfo(pdfReader *pdf.Reader) map[string]string {
	fields := make(map[string]string)

	trailer := pdfReader.Trailer()
	if trailer.IsNull() {
		return fields
	}

	info := trailer.Key("Info")
	if info.IsNull() {
		return fields
	}

	for key := range docInfoFields {
		if val := info.Key(key); !val.IsNull() {
			if str := val.Text(); str != "" {
				fields[key] = str
			}
		}
	}

	return fields
}

// ExtractTextFromPDF extracts the full text of a PDF file.
func ExtractTextFromPDF(filePath string) (string, error) {
	docs, err := NewPDFReader(filePath).LoadData()
	if err != nil {
		return "", err
	}

	var texts []string
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}

	return strings.Join(texts, "\n\n"), nil
}

// GetPDFPageCount returns the number of pages in a PDF file.
func GetPDFPageCount(filePath string) (int, error) {
	f, pdfReader, err := pdf.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return pdfReader.NumPage(), nil
}

// GetPDFDocInfo extracts the document information dictionary from a PDF
// file, plus a PageCount entry.
func GetPDFDocInfo(filePath string) (map[string]string, error) {
	f, pdfReader, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	info := docInfo(pdfReader)
	info["PageCount"] = fmt.Sprintf("%d", pdfReader.NumPage())

	return info, nil
}

var _ Reader = (*PDFReader)(nil)
var _ ReaderWithContext = (*PDFReader)(nil)
var _ FileReader = (*PDFReader)(nil)
var _ ReaderWithMetadata = (*PDFReader)(nil)
