package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument(t *testing.T) {
	t.Run("NewDocument", func(t *testing.T) {
		doc := NewDocument("hello world", map[string]interface{}{"source": "test"})
		assert.Empty(t, doc.ID)
		assert.Equal(t, "hello world", doc.Text)
		assert.Equal(t, "test", doc.Metadata["source"])
	})

	t.Run("NewDocumentWithID generates unique IDs", func(t *testing.T) {
		a := NewDocumentWithID("a", nil)
		b := NewDocumentWithID("b", nil)
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, b.ID)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("CopyMetadata returns independent copy", func(t *testing.T) {
		doc := NewDocument("text", map[string]interface{}{"k": "v"})
		meta := doc.CopyMetadata()
		meta["k"] = "changed"
		meta["new"] = true
		assert.Equal(t, "v", doc.Metadata["k"])
		assert.NotContains(t, doc.Metadata, "new")
	})

	t.Run("CopyMetadata never returns nil", func(t *testing.T) {
		doc := NewDocument("text", nil)
		meta := doc.CopyMetadata()
		assert.NotNil(t, meta)
		assert.Empty(t, meta)
	})
}

func TestMetadataFilterMatches(t *testing.T) {
	metadata := map[string]interface{}{
		"category": "tutorial",
		"year":     2024,
		"rating":   4.5,
	}

	t.Run("Eq matches equal values", func(t *testing.T) {
		assert.True(t, NewMetadataFilter("category", "tutorial").Matches(metadata))
		assert.False(t, NewMetadataFilter("category", "guide").Matches(metadata))
	})

	t.Run("Eq compares numbers across types", func(t *testing.T) {
		assert.True(t, NewMetadataFilter("year", 2024.0).Matches(metadata))
		assert.True(t, NewMetadataFilter("year", int64(2024)).Matches(metadata))
	})

	t.Run("Missing key never matches", func(t *testing.T) {
		assert.False(t, NewMetadataFilter("missing", "anything").Matches(metadata))
		assert.False(t, NewMetadataFilterWithOp("missing", 1, FilterOperatorGt).Matches(metadata))
	})

	t.Run("Ne", func(t *testing.T) {
		assert.True(t, NewMetadataFilterWithOp("category", "guide", FilterOperatorNe).Matches(metadata))
		assert.False(t, NewMetadataFilterWithOp("category", "tutorial", FilterOperatorNe).Matches(metadata))
	})

	t.Run("Numeric comparisons", func(t *testing.T) {
		assert.True(t, NewMetadataFilterWithOp("year", 2020, FilterOperatorGt).Matches(metadata))
		assert.True(t, NewMetadataFilterWithOp("year", 2024, FilterOperatorGte).Matches(metadata))
		assert.False(t, NewMetadataFilterWithOp("year", 2024, FilterOperatorGt).Matches(metadata))
		assert.True(t, NewMetadataFilterWithOp("rating", 5, FilterOperatorLt).Matches(metadata))
		assert.True(t, NewMetadataFilterWithOp("rating", 4.5, FilterOperatorLte).Matches(metadata))
	})

	t.Run("Comparison on non-numeric value fails", func(t *testing.T) {
		assert.False(t, NewMetadataFilterWithOp("category", 1, FilterOperatorGt).Matches(metadata))
	})

	t.Run("In", func(t *testing.T) {
		f := NewMetadataFilterWithOp("category", []string{"guide", "tutorial"}, FilterOperatorIn)
		assert.True(t, f.Matches(metadata))

		f = NewMetadataFilterWithOp("category", []string{"guide", "reference"}, FilterOperatorIn)
		assert.False(t, f.Matches(metadata))
	})

	t.Run("In with mixed value types", func(t *testing.T) {
		f := NewMetadataFilterWithOp("year", []interface{}{2023, 2024}, FilterOperatorIn)
		assert.True(t, f.Matches(metadata))
	})

	t.Run("Nin", func(t *testing.T) {
		f := NewMetadataFilterWithOp("category", []string{"guide", "reference"}, FilterOperatorNin)
		assert.True(t, f.Matches(metadata))

		f = NewMetadataFilterWithOp("category", []string{"tutorial"}, FilterOperatorNin)
		assert.False(t, f.Matches(metadata))
	})
}

func TestMetadataFiltersMatches(t *testing.T) {
	metadata := map[string]interface{}{
		"category": "tutorial",
		"year":     2024,
	}

	t.Run("Nil filters match everything", func(t *testing.T) {
		var mf *MetadataFilters
		assert.True(t, mf.Matches(metadata))
		assert.True(t, NewMetadataFilters().Matches(metadata))
	})

	t.Run("And requires all filters", func(t *testing.T) {
		mf := NewMetadataFilters(
			NewMetadataFilter("category", "tutorial"),
			NewMetadataFilterWithOp("year", 2020, FilterOperatorGt),
		)
		assert.True(t, mf.Matches(metadata))

		mf.And(NewMetadataFilter("category", "guide"))
		assert.False(t, mf.Matches(metadata))
	})

	t.Run("Or requires any filter", func(t *testing.T) {
		mf := NewMetadataFiltersWithCondition(FilterConditionOr,
			NewMetadataFilter("category", "guide"),
			NewMetadataFilter("year", 2024),
		)
		assert.True(t, mf.Matches(metadata))

		mf = NewMetadataFiltersWithCondition(FilterConditionOr,
			NewMetadataFilter("category", "guide"),
			NewMetadataFilter("year", 1999),
		)
		assert.False(t, mf.Matches(metadata))
	})
}
