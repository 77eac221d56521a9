// Package query narrows and orders an evaluated lead population.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// Sentinel errors for invalid options.
var (
	ErrInvalidSortField     = errors.New("invalid sort field")
	ErrInvalidSortDirection = errors.New("invalid sort direction")
	ErrInvalidFilter        = errors.New("invalid filter")
)

// All disables a discrete filter.
const All = "all"

// Qualified filter values.
const (
	QualifiedOnly   = "qualified"
	UnqualifiedOnly = "unqualified"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Defaults applied when Options leaves sorting unset.
const (
	DefaultSortField     = "score"
	DefaultSortDirection = Desc
)

// Options describe one query. Empty discrete filters behave like All.
type Options struct {
	SegmentID     string    `json:"segmentId,omitempty"`
	Search        string    `json:"search,omitempty"`
	Type          string    `json:"type,omitempty"`
	Tier          string    `json:"tier,omitempty"`
	Qualified     string    `json:"qualified,omitempty"`
	SortField     string    `json:"sortField,omitempty"`
	SortDirection Direction `json:"sortDirection,omitempty"`
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindBool
	kindTier
)

var sortFields = map[string]fieldKind{
	"id":                kindString,
	"email":             kindString,
	"type":              kindString,
	"region":            kindString,
	"country":           kindString,
	"industry":          kindString,
	"title":             kindString,
	"role":              kindString,
	"companysize":       kindString,
	"emaildomainclass":  kindString,
	"score":             kindNumber,
	"employees":         kindNumber,
	"foundedyear":       kindNumber,
	"annualrevenue":     kindNumber,
	"qualified":         kindBool,
	"manuallyqualified": kindBool,
	"tier":              kindTier,
}

// SortFields lists the accepted sort field names.
func SortFields() []string {
	out := make([]string, 0, len(sortFields))
	for k := range sortFields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Run applies, in order, the segment filter, the free text search, the
// type/tier/qualified filters and a stable sort. The input slice is never
// modified and the result is always a new slice.
func Run(leads []lead.Lead, segments []segment.Segment, opts Options) ([]lead.Lead, error) {
	opts, kind, err := normalize(opts)
	if err != nil {
		return nil, err
	}

	var active *segment.Predicate
	if opts.SegmentID != "" {
		for i := range segments {
			if segments[i].ID == opts.SegmentID {
				if active, err = segment.Compile(segments[i]); err != nil {
					return nil, err
				}
				break
			}
		}
		if active == nil {
			return nil, fmt.Errorf("%w: %q", segment.ErrSegmentNotFound, opts.SegmentID)
		}
	}

	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(opts.Search))

	out := make([]lead.Lead, 0, len(leads))
	for i := range leads {
		l := &leads[i]
		if active != nil && !active.Match(l) {
			continue
		}
		if term != "" && !searchMatches(fold, l, term) {
			continue
		}
		if !filtersMatch(l, opts) {
			continue
		}
		out = append(out, l.Clone())
	}

	sortLeads(out, fold, opts.SortField, kind, opts.SortDirection)
	return out, nil
}

func normalize(opts Options) (Options, fieldKind, error) {
	if opts.SegmentID == All {
		opts.SegmentID = ""
	}
	if opts.SortField == "" {
		opts.SortField = DefaultSortField
	}
	opts.SortField = strings.ToLower(strings.ReplaceAll(opts.SortField, "_", ""))
	kind, ok := sortFields[opts.SortField]
	if !ok {
		return opts, 0, fmt.Errorf("%w: %q", ErrInvalidSortField, opts.SortField)
	}

	switch Direction(strings.ToLower(string(opts.SortDirection))) {
	case "":
		opts.SortDirection = DefaultSortDirection
	case Asc:
		opts.SortDirection = Asc
	case Desc:
		opts.SortDirection = Desc
	default:
		return opts, 0, fmt.Errorf("%w: %q", ErrInvalidSortDirection, opts.SortDirection)
	}

	if opts.Tier != "" {
		if strings.EqualFold(opts.Tier, All) {
			opts.Tier = All
		} else {
			tier, err := threshold.ParseTier(opts.Tier)
			if err != nil {
				return opts, 0, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
			}
			opts.Tier = string(tier)
		}
	}

	switch opts.Qualified {
	case "", All, QualifiedOnly, UnqualifiedOnly:
	default:
		return opts, 0, fmt.Errorf("%w: qualified must be all, qualified or unqualified, got %q", ErrInvalidFilter, opts.Qualified)
	}
	return opts, kind, nil
}

func searchMatches(fold cases.Caser, l *lead.Lead, term string) bool {
	for _, field := range []string{l.Email, l.Region, l.Industry, l.Title} {
		if field != "" && strings.Contains(fold.String(field), term) {
			return true
		}
	}
	return false
}

func filtersMatch(l *lead.Lead, opts Options) bool {
	if opts.Type != "" && opts.Type != All && l.Type != opts.Type {
		return false
	}
	if opts.Tier != "" && opts.Tier != All && string(l.Tier) != opts.Tier {
		return false
	}
	switch opts.Qualified {
	case QualifiedOnly:
		return l.Qualified
	case UnqualifiedOnly:
		return !l.Qualified
	}
	return true
}

func sortLeads(leads []lead.Lead, fold cases.Caser, field string, kind fieldKind, dir Direction) {
	cmp := func(a, b *lead.Lead) int {
		av, _ := a.Field(field)
		bv, _ := b.Field(field)
		switch kind {
		case kindNumber:
			return compareFloat(number(av), number(bv))
		case kindBool:
			return compareBool(av == true, bv == true)
		case kindTier:
			return compareInt(threshold.Rank(a.Tier), threshold.Rank(b.Tier))
		default:
			as, _ := av.(string)
			bs, _ := bv.(string)
			return strings.Compare(fold.String(as), fold.String(bs))
		}
	}

	sort.SliceStable(leads, func(i, j int) bool {
		c := cmp(&leads[i], &leads[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	return compareFloat(float64(a), float64(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
