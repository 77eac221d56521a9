package segment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/TimurManjosov/leadgrade/internal/lead"
)

// Predicate is a segment compiled to a JSON Logic rule of the form
// {"and": [{"===": [{"var": "f0"}, value]}, ...]}.
//
// Lead fields are passed to the rule under positional names so that filter
// keys containing dots are not read as paths. Numbers on both sides are
// widened to float64, which makes 300 and 300.0 equal while "300" and 300
// stay different.
type Predicate struct {
	keys []string
	rule []byte
}

// Compile builds the predicate for s.
func Compile(s Segment) (*Predicate, error) {
	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]any, 0, len(keys))
	for i, k := range keys {
		want := s.Filters[k]
		if !isScalar(want) {
			return nil, fmt.Errorf("%w: %q filter %q has unsupported value type %T", ErrInvalidSegment, s.ID, k, want)
		}
		clauses = append(clauses, map[string]any{
			"===": []any{map[string]any{"var": fieldVar(i)}, widen(want)},
		})
	}
	rule, err := json.Marshal(map[string]any{"and": clauses})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSegment, s.ID, err)
	}
	return &Predicate{keys: keys, rule: rule}, nil
}

// Rule returns the JSON Logic document.
func (p *Predicate) Rule() string { return string(p.rule) }

// Match evaluates the predicate against one lead. A lead without one of the
// filtered fields never matches.
func (p *Predicate) Match(l *lead.Lead) bool {
	if len(p.keys) == 0 {
		return true
	}
	data := make(map[string]any, len(p.keys))
	for i, k := range p.keys {
		v, ok := l.Field(k)
		if !ok {
			return false
		}
		data[fieldVar(i)] = widen(v)
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return false
	}

	var resultBuf bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(p.rule), bytes.NewReader(dataBytes), &resultBuf); err != nil {
		return false
	}
	var result any
	if err := json.Unmarshal(resultBuf.Bytes(), &result); err != nil {
		return false
	}
	matched, _ := result.(bool)
	return matched
}

func fieldVar(i int) string {
	return "f" + strconv.Itoa(i)
}

func widen(v any) any {
	if f, ok := toFloat64(v); ok {
		return f
	}
	return v
}
