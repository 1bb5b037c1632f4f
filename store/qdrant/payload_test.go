package qdrant

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-vectorstores/schema"
)

func TestBuildPayload(t *testing.T) {
	t.Run("Reserved keys are written last", func(t *testing.T) {
		s := newTestStore(t, &fakeClient{}, WithUploadPayload(map[string]interface{}{
			"source":  "ingest",
			"content": "store-level evil",
		}))

		doc := schema.Document{
			Text:     "hello",
			Metadata: map[string]interface{}{"author": "alice"},
		}
		payload := s.buildPayload(doc, map[string]interface{}{
			"batch":    "b1",
			"metadata": "call-level evil",
		})

		assert.Equal(t, "hello", payload["content"].GetStringValue())
		assert.Equal(t, "ingest", payload["source"].GetStringValue())
		assert.Equal(t, "b1", payload["batch"].GetStringValue())

		meta := payload["metadata"].GetStructValue()
		require.NotNil(t, meta)
		assert.Equal(t, "alice", meta.GetFields()["author"].GetStringValue())
	})

	t.Run("Custom payload keys", func(t *testing.T) {
		s := newTestStore(t, &fakeClient{},
			WithContentKey("page_content"),
			WithMetadataKey("meta"),
		)

		payload := s.buildPayload(schema.Document{Text: "body"}, nil)

		assert.Equal(t, "body", payload["page_content"].GetStringValue())
		assert.NotNil(t, payload["meta"].GetStructValue())
		assert.Nil(t, payload["content"])
	})
}

func TestPayloadRoundTrip(t *testing.T) {
	s := newTestStore(t, &fakeClient{})

	doc := schema.Document{
		Text: "the quick brown fox",
		Metadata: map[string]interface{}{
			"author": "alice",
			"year":   int64(2024),
			"pi":     3.5,
			"draft":  true,
			"tags":   []interface{}{"go", "vectors"},
			"nested": map[string]interface{}{"k": "v"},
		},
	}

	point := &qdrant.ScoredPoint{
		Id:      qdrant.NewID("round-trip"),
		Payload: s.buildPayload(doc, nil),
	}
	got := s.documentFromPoint(point)

	assert.Equal(t, "round-trip", got.ID)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, "alice", got.Metadata["author"])
	assert.Equal(t, int64(2024), got.Metadata["year"])
	assert.Equal(t, 3.5, got.Metadata["pi"])
	assert.Equal(t, true, got.Metadata["draft"])
	assert.Equal(t, []interface{}{"go", "vectors"}, got.Metadata["tags"])
	assert.Equal(t, map[string]interface{}{"k": "v"}, got.Metadata["nested"])
}

func TestDocumentFromPoint(t *testing.T) {
	s := newTestStore(t, &fakeClient{})

	t.Run("Missing payload keys yield an empty document", func(t *testing.T) {
		doc := s.documentFromPoint(&qdrant.ScoredPoint{Id: qdrant.NewID("x")})
		assert.Equal(t, "x", doc.ID)
		assert.Empty(t, doc.Text)
		assert.Nil(t, doc.Metadata)
	})

	t.Run("Numeric point IDs render as strings", func(t *testing.T) {
		doc := s.documentFromPoint(&qdrant.ScoredPoint{Id: qdrant.NewIDNum(42)})
		assert.Equal(t, "42", doc.ID)
	})
}

func TestPointIDString(t *testing.T) {
	assert.Equal(t, "", pointIDString(nil))
	assert.Equal(t, "abc", pointIDString(qdrant.NewID("abc")))
	assert.Equal(t, "42", pointIDString(qdrant.NewIDNum(42)))
}

func TestValueToInterface(t *testing.T) {
	assert.Nil(t, valueToInterface(nil))
	assert.Nil(t, valueToInterface(&qdrant.Value{Kind: &qdrant.Value_NullValue{}}))
	assert.Equal(t, int64(7), valueToInterface(&qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: 7}}))
	assert.Equal(t, "s", valueToInterface(&qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: "s"}}))
	assert.Equal(t, 1.5, valueToInterface(&qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: 1.5}}))
	assert.Equal(t, true, valueToInterface(&qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: true}}))
}
