package chromem

import (
	"context"
	"os"
	"testing"

	"github.com/aqua777/go-vectorstores/schema"
)

func TestPersistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "chromem_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()

	s, err := NewStore(tmpDir, "persisted")
	if err != nil {
		t.Fatalf("failed to create persistent store: %v", err)
	}

	doc := schema.Document{
		ID:   "1",
		Text: "Hello persistence",
		Metadata: map[string]interface{}{
			"foo":  "bar",
			"year": 2024,
		},
	}
	_, err = s.AddVectors(ctx, [][]float32{{0.1, 0.2, 0.3}}, []schema.Document{doc})
	if err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	// A new instance over the same directory loads what the first wrote.
	reopened, err := NewStore(tmpDir, "persisted")
	if err != nil {
		t.Fatalf("failed to reopen persistent store: %v", err)
	}

	results, err := reopened.SimilaritySearchByVectorWithScore(ctx, []float32{0.1, 0.2, 0.3}, 1)
	if err != nil {
		t.Fatalf("failed to query reopened store: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	got := results[0].Document
	if got.ID != "1" {
		t.Errorf("expected ID '1', got '%s'", got.ID)
	}
	if got.Text != "Hello persistence" {
		t.Errorf("expected text 'Hello persistence', got '%s'", got.Text)
	}
	if got.Metadata["foo"] != "bar" {
		t.Errorf("expected metadata foo='bar', got '%v'", got.Metadata["foo"])
	}
	if got.Metadata["year"] != float64(2024) {
		t.Errorf("expected metadata year=2024, got '%v'", got.Metadata["year"])
	}
}
