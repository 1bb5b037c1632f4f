package qdrant

import (
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/aqua777/go-vectorstores/schema"
)

// buildPayload assembles the point payload for a document. Store-level and
// call-level extras come first; the content and metadata keys are written
// last so they always win.
func (s *Store) buildPayload(doc schema.Document, extras map[string]interface{}) map[string]*qdrant.Value {
	fields := make(map[string]interface{}, len(s.uploadPayload)+len(extras)+2)
	for key, value := range s.uploadPayload {
		fields[key] = value
	}
	for key, value := range extras {
		fields[key] = value
	}
	fields[s.contentKey] = doc.Text
	fields[s.metadataKey] = doc.CopyMetadata()
	return qdrant.NewValueMap(fields)
}

// documentFromPoint rebuilds a document from a scored point's payload.
func (s *Store) documentFromPoint(point *qdrant.ScoredPoint) schema.Document {
	payload := point.GetPayload()
	doc := schema.Document{
		ID:   pointIDString(point.GetId()),
		Text: payload[s.contentKey].GetStringValue(),
	}
	if structValue := payload[s.metadataKey].GetStructValue(); structValue != nil {
		doc.Metadata = payloadToMap(structValue.GetFields())
	}
	return doc
}

// payloadToMap converts a Qdrant payload to a plain metadata map.
func payloadToMap(fields map[string]*qdrant.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		out[key] = valueToInterface(value)
	}
	return out
}

func valueToInterface(value *qdrant.Value) interface{} {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = valueToInterface(item)
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}

// pointIDString renders a point ID as a string, whichever form it uses.
func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
