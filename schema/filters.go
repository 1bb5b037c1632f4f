package schema

import (
	"fmt"
)

// FilterOperator represents the operator for a metadata filter.
type FilterOperator string

const (
	FilterOperatorEq  FilterOperator = "=="  // Equal (string, int, float)
	FilterOperatorNe  FilterOperator = "!="  // Not equal (string, int, float)
	FilterOperatorGt  FilterOperator = ">"   // Greater than (int, float)
	FilterOperatorGte FilterOperator = ">="  // Greater than or equal (int, float)
	FilterOperatorLt  FilterOperator = "<"   // Less than (int, float)
	FilterOperatorLte FilterOperator = "<="  // Less than or equal (int, float)
	FilterOperatorIn  FilterOperator = "in"  // Value in array
	FilterOperatorNin FilterOperator = "nin" // Value not in array
)

// FilterCondition represents how multiple filters are combined.
type FilterCondition string

const (
	// FilterConditionAnd combines filters with AND logic.
	FilterConditionAnd FilterCondition = "and"
	// FilterConditionOr combines filters with OR logic.
	FilterConditionOr FilterCondition = "or"
)

// MetadataFilter represents a single metadata filter.
type MetadataFilter struct {
	Key      string         `json:"key"`
	Value    interface{}    `json:"value"`
	Operator FilterOperator `json:"operator"`
}

// NewMetadataFilter creates a new metadata filter with the EQ operator.
func NewMetadataFilter(key string, value interface{}) MetadataFilter {
	return MetadataFilter{
		Key:      key,
		Value:    value,
		Operator: FilterOperatorEq,
	}
}

// NewMetadataFilterWithOp creates a new metadata filter with a specific operator.
func NewMetadataFilterWithOp(key string, value interface{}, op FilterOperator) MetadataFilter {
	return MetadataFilter{
		Key:      key,
		Value:    value,
		Operator: op,
	}
}

// MetadataFilters represents a collection of metadata filters with a condition.
type MetadataFilters struct {
	Filters   []MetadataFilter `json:"filters"`
	Condition FilterCondition  `json:"condition,omitempty"`
}

// NewMetadataFilters creates a new MetadataFilters with AND condition.
func NewMetadataFilters(filters ...MetadataFilter) *MetadataFilters {
	return &MetadataFilters{
		Filters:   filters,
		Condition: FilterConditionAnd,
	}
}

// NewMetadataFiltersWithCondition creates a new MetadataFilters with a specific condition.
func NewMetadataFiltersWithCondition(condition FilterCondition, filters ...MetadataFilter) *MetadataFilters {
	return &MetadataFilters{
		Filters:   filters,
		Condition: condition,
	}
}

// And adds filters, keeping AND as the combining condition.
func (mf *MetadataFilters) And(filters ...MetadataFilter) *MetadataFilters {
	if mf.Condition == "" {
		mf.Condition = FilterConditionAnd
	}
	mf.Filters = append(mf.Filters, filters...)
	return mf
}

// Matches reports whether the metadata satisfies all filters under the
// configured condition. A nil or empty filter set matches everything.
func (mf *MetadataFilters) Matches(metadata map[string]interface{}) bool {
	if mf == nil || len(mf.Filters) == 0 {
		return true
	}

	for _, f := range mf.Filters {
		matched := f.Matches(metadata)
		if mf.Condition == FilterConditionOr {
			if matched {
				return true
			}
		} else if !matched {
			return false
		}
	}

	return mf.Condition != FilterConditionOr
}

// Matches reports whether the metadata satisfies the filter.
// Missing keys never match.
func (f MetadataFilter) Matches(metadata map[string]interface{}) bool {
	value, ok := metadata[f.Key]
	if !ok {
		return false
	}

	switch f.Operator {
	case FilterOperatorEq, "":
		return valuesEqual(value, f.Value)
	case FilterOperatorNe:
		return !valuesEqual(value, f.Value)
	case FilterOperatorGt, FilterOperatorGte, FilterOperatorLt, FilterOperatorLte:
		a, aOK := toFloat64(value)
		b, bOK := toFloat64(f.Value)
		if !aOK || !bOK {
			return false
		}
		switch f.Operator {
		case FilterOperatorGt:
			return a > b
		case FilterOperatorGte:
			return a >= b
		case FilterOperatorLt:
			return a < b
		default:
			return a <= b
		}
	case FilterOperatorIn:
		for _, candidate := range valueSlice(f.Value) {
			if valuesEqual(value, candidate) {
				return true
			}
		}
		return false
	case FilterOperatorNin:
		for _, candidate := range valueSlice(f.Value) {
			if valuesEqual(value, candidate) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// valuesEqual compares two metadata values. Numeric values compare by
// magnitude so int(2) equals float64(2); everything else compares by its
// string form.
func valuesEqual(a, b interface{}) bool {
	if af, aOK := toFloat64(a); aOK {
		if bf, bOK := toFloat64(b); bOK {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// toFloat64 coerces numeric metadata values to float64.
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// valueSlice normalizes a filter value to a slice of candidates for the
// in/nin operators. A scalar value is treated as a single-element slice.
func valueSlice(v interface{}) []interface{} {
	switch val := v.(type) {
	case []interface{}:
		return val
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []int:
		out := make([]interface{}, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]interface{}, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	default:
		return []interface{}{v}
	}
}
