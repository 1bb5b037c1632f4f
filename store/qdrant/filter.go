package qdrant

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/aqua777/go-vectorstores/schema"
)

// translateFilters converts metadata filters to a Qdrant filter. Metadata
// fields live under the metadata payload key, so filter keys are addressed
// with dot notation. And-combined filters map to must clauses, with negated
// operators moved to must_not; or-combined filters map to should clauses.
// Negated operators have no or-form in Qdrant and are rejected there.
func (s *Store) translateFilters(filters *schema.MetadataFilters) (*qdrant.Filter, error) {
	if filters == nil || len(filters.Filters) == 0 {
		return nil, nil
	}

	or := filters.Condition == schema.FilterConditionOr
	filter := &qdrant.Filter{}
	for _, f := range filters.Filters {
		negated := f.Operator == schema.FilterOperatorNe || f.Operator == schema.FilterOperatorNin
		if or && negated {
			return nil, fmt.Errorf("filter operator %q is not supported in or-filters", f.Operator)
		}

		condition, err := s.leafCondition(f)
		if err != nil {
			return nil, err
		}

		switch {
		case negated:
			filter.MustNot = append(filter.MustNot, condition)
		case or:
			filter.Should = append(filter.Should, condition)
		default:
			filter.Must = append(filter.Must, condition)
		}
	}
	return filter, nil
}

// leafCondition builds the condition for a single filter. Negation is
// handled by the caller, so ne translates like eq and nin like in.
func (s *Store) leafCondition(f schema.MetadataFilter) (*qdrant.Condition, error) {
	key := s.metadataKey + "." + f.Key

	switch f.Operator {
	case schema.FilterOperatorEq, schema.FilterOperatorNe, "":
		return matchCondition(key, f.Value)

	case schema.FilterOperatorGt, schema.FilterOperatorGte, schema.FilterOperatorLt, schema.FilterOperatorLte:
		value, ok := filterFloat(f.Value)
		if !ok {
			return nil, fmt.Errorf("filter operator %q on %q requires a numeric value, got %T", f.Operator, f.Key, f.Value)
		}
		rng := &qdrant.Range{}
		switch f.Operator {
		case schema.FilterOperatorGt:
			rng.Gt = &value
		case schema.FilterOperatorGte:
			rng.Gte = &value
		case schema.FilterOperatorLt:
			rng.Lt = &value
		default:
			rng.Lte = &value
		}
		return qdrant.NewRange(key, rng), nil

	case schema.FilterOperatorIn, schema.FilterOperatorNin:
		keywords, ok := stringSlice(f.Value)
		if !ok {
			return nil, fmt.Errorf("filter operator %q on %q requires string values, got %T", f.Operator, f.Key, f.Value)
		}
		return qdrant.NewMatchKeywords(key, keywords...), nil

	default:
		return nil, fmt.Errorf("unsupported filter operator %q", f.Operator)
	}
}

// matchCondition builds an exact-match condition for a scalar value. Floats
// have no match variant in Qdrant and translate to a closed range.
func matchCondition(key string, value interface{}) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(key, v), nil
	case bool:
		return qdrant.NewMatchBool(key, v), nil
	case int:
		return qdrant.NewMatchInt(key, int64(v)), nil
	case int32:
		return qdrant.NewMatchInt(key, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(key, v), nil
	case float32:
		f := float64(v)
		return qdrant.NewRange(key, &qdrant.Range{Gte: &f, Lte: &f}), nil
	case float64:
		return qdrant.NewRange(key, &qdrant.Range{Gte: &v, Lte: &v}), nil
	default:
		return nil, fmt.Errorf("unsupported filter value type %T for %q", value, key)
	}
}

func filterFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

func stringSlice(v interface{}) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []interface{}:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
