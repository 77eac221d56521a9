package rules

import (
	"encoding/json"
	"fmt"
)

// DecodeValue converts a loosely typed value, as produced by JSON or YAML
// unmarshaling into any, into the Value for the given kind. A shape that does
// not fit the kind returns ErrSchemaMismatch.
func DecodeValue(kind ValueKind, raw any) (Value, error) {
	switch kind {
	case KindChoice:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: choice expects a string, got %T", ErrSchemaMismatch, raw)
		}
		return ChoiceValue(s), nil

	case KindText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: text expects a string, got %T", ErrSchemaMismatch, raw)
		}
		return TextValue(s), nil

	case KindMultiChoice:
		list, ok := toStringSlice(raw)
		if !ok {
			return nil, fmt.Errorf("%w: multi_choice expects a list of strings, got %T", ErrSchemaMismatch, raw)
		}
		return MultiChoiceValue(list), nil

	case KindRange:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: range expects an object, got %T", ErrSchemaMismatch, raw)
		}
		rv := RangeValue{Op: RangeBetween}
		if op, ok := m["op"]; ok {
			s, ok := op.(string)
			if !ok {
				return nil, fmt.Errorf("%w: range op must be a string", ErrSchemaMismatch)
			}
			rv.Op = RangeOp(s)
		}
		if v, ok := m["min"]; ok {
			f, ok := toFloat64(v)
			if !ok {
				return nil, fmt.Errorf("%w: range min must be numeric", ErrSchemaMismatch)
			}
			rv.Min = f
		}
		if v, ok := m["max"]; ok {
			f, ok := toFloat64(v)
			if !ok {
				return nil, fmt.Errorf("%w: range max must be numeric", ErrSchemaMismatch)
			}
			rv.Max = f
		}
		return rv, nil

	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrInvalidCriterion, kind)
	}
}

// EncodeValue is the inverse of DecodeValue.
func EncodeValue(v Value) any {
	switch val := v.(type) {
	case ChoiceValue:
		return string(val)
	case TextValue:
		return string(val)
	case MultiChoiceValue:
		return []string(val)
	case RangeValue:
		return map[string]any{"op": string(val.Op), "min": val.Min, "max": val.Max}
	default:
		return nil
	}
}

func toStringSlice(v any) ([]string, bool) {
	switch values := v.(type) {
	case []string:
		return values, true
	case []any:
		result := make([]string, 0, len(values))
		for _, item := range values {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			result = append(result, s)
		}
		return result, true
	default:
		return nil, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
