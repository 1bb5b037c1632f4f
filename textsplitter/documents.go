package textsplitter

import (
	"github.com/aqua777/go-vectorstores/schema"
)

// SplitDocuments splits each document's text and returns one document per
// chunk. Chunk documents inherit a copy of the source document's metadata;
// IDs are left empty so the vector store assigns fresh ones on write.
func SplitDocuments(splitter TextSplitter, docs []schema.Document) []schema.Document {
	var out []schema.Document
	for _, doc := range docs {
		for _, chunk := range splitter.SplitText(doc.Text) {
			if chunk == "" {
				continue
			}
			out = append(out, schema.NewDocument(chunk, doc.CopyMetadata()))
		}
	}
	return out
}
