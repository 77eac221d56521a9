package engine

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/TimurManjosov/leadgrade/internal/rules"
)

// ValueHandler checks a lead field value against one condition value.
type ValueHandler interface {
	Check(leadValue any, condValue rules.Value) bool
}

var (
	valueHandlers = map[rules.ValueKind]ValueHandler{
		rules.KindChoice:      choiceHandler{},
		rules.KindMultiChoice: multiChoiceHandler{},
		rules.KindRange:       rangeHandler{},
		rules.KindText:        textHandler{},
	}

	rangeChecks = map[rules.RangeOp]func(v float64, r rules.RangeValue) bool{
		rules.RangeBetween:     func(v float64, r rules.RangeValue) bool { return v >= r.Min && v <= r.Max },
		rules.RangeGreaterThan: func(v float64, r rules.RangeValue) bool { return v > r.Min },
		rules.RangeLessThan:    func(v float64, r rules.RangeValue) bool { return v < r.Max },
	}
)

func getValueHandler(kind rules.ValueKind) (ValueHandler, bool) {
	h, ok := valueHandlers[kind]
	return h, ok
}

type choiceHandler struct{}

func (choiceHandler) Check(leadValue any, condValue rules.Value) bool {
	want, ok := condValue.(rules.ChoiceValue)
	if !ok {
		return false
	}
	for _, v := range leadStrings(leadValue) {
		if v == string(want) {
			return true
		}
	}
	return false
}

type multiChoiceHandler struct{}

func (multiChoiceHandler) Check(leadValue any, condValue rules.Value) bool {
	set, ok := condValue.(rules.MultiChoiceValue)
	if !ok {
		return false
	}
	for _, v := range leadStrings(leadValue) {
		if set.Contains(v) {
			return true
		}
	}
	return false
}

type rangeHandler struct{}

func (rangeHandler) Check(leadValue any, condValue rules.Value) bool {
	r, ok := condValue.(rules.RangeValue)
	if !ok {
		return false
	}
	v, ok := toFloat64(leadValue)
	if !ok {
		return false
	}
	check, ok := rangeChecks[r.Op]
	return ok && check(v, r)
}

type textHandler struct{}

func (textHandler) Check(leadValue any, condValue rules.Value) bool {
	want, ok := condValue.(rules.TextValue)
	if !ok {
		return false
	}
	got, ok := leadValue.(string)
	return ok && strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(string(want)))
}

// leadStrings accepts a single string or a list of strings.
func leadStrings(v any) []string {
	switch values := v.(type) {
	case string:
		return []string{values}
	case []string:
		return values
	case []any:
		result := make([]string, 0, len(values))
		for _, item := range values {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
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
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
