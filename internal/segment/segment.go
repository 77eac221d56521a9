// Package segment matches leads against saved exact-match filters.
package segment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TimurManjosov/leadgrade/internal/lead"
)

// Sentinel errors for segment operations.
var (
	ErrSegmentNotFound  = errors.New("segment not found")
	ErrDuplicateSegment = errors.New("segment already exists")
	ErrInvalidSegment   = errors.New("invalid segment")
	ErrReservedSegment  = errors.New("segment is reserved")
)

// Reserved segment ids. Collaborators refuse to delete them.
const (
	IDQualified   = "qualified"
	IDUnqualified = "unqualified"
)

// IsReserved reports whether id names a built-in segment.
func IsReserved(id string) bool {
	return id == IDQualified || id == IDUnqualified
}

// Segment is a named exact-match predicate over lead fields.
type Segment struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Filters map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"`
	Color   string         `json:"color,omitempty" yaml:"color,omitempty"`
}

// Clone returns a copy that shares no maps with s.
func (s Segment) Clone() Segment {
	if s.Filters != nil {
		f := make(map[string]any, len(s.Filters))
		for k, v := range s.Filters {
			f[k] = v
		}
		s.Filters = f
	}
	return s
}

// Validate checks the segment shape. Filter values must be strings, numbers
// or booleans, and a zero on a numeric field where zero means unknown is
// refused.
func (s Segment) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSegment)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: %q name is required", ErrInvalidSegment, s.ID)
	}
	for k, v := range s.Filters {
		if k == "" {
			return fmt.Errorf("%w: %q has an empty filter key", ErrInvalidSegment, s.ID)
		}
		if !isScalar(v) {
			return fmt.Errorf("%w: %q filter %q has unsupported value type %T", ErrInvalidSegment, s.ID, k, v)
		}
		if n, ok := toFloat64(v); ok && n == 0 && lead.UnknownWhenZero(k) {
			return fmt.Errorf("%w: %q filter %q: 0 means unknown and never matches", ErrInvalidSegment, s.ID, k)
		}
	}
	return nil
}

// Matches reports whether every filter of s equals the corresponding lead
// field. Absent filter keys match anything, so an empty filter matches every
// lead.
func Matches(l *lead.Lead, s Segment) bool {
	p, err := Compile(s)
	if err != nil {
		return false
	}
	return p.Match(l)
}

// Filter returns the leads matching s, in input order. A segment that does
// not compile matches nothing.
func Filter(leads []lead.Lead, s Segment) []lead.Lead {
	out := make([]lead.Lead, 0, len(leads))
	p, err := Compile(s)
	if err != nil {
		return out
	}
	for i := range leads {
		if p.Match(&leads[i]) {
			out = append(out, leads[i])
		}
	}
	return out
}

// DefaultSegments returns the reserved qualified and unqualified segments.
func DefaultSegments() []Segment {
	return []Segment{
		{ID: IDQualified, Name: "Qualified", Filters: map[string]any{"qualified": true}, Color: "#2e7d32"},
		{ID: IDUnqualified, Name: "Unqualified", Filters: map[string]any{"qualified": false}, Color: "#9e9e9e"},
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	_, ok := toFloat64(v)
	return ok
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
