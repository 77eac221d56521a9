// Package validation produces field-level, user-facing messages for
// configuration edits and request parameters.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

const (
	// MaxSegmentNameLength is the maximum length for segment names
	MaxSegmentNameLength = 64
	// MaxFilterKeys is the maximum number of filters on one segment
	MaxFilterKeys = 16
	// MaxIDLength is the maximum length for lead and segment ids
	MaxIDLength = 128
)

// colorPattern matches #RGB and #RRGGBB
var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// SegmentValidationParams contains the parameters for validating a segment
type SegmentValidationParams struct {
	Name    string
	Color   string
	Filters map[string]any
}

// ValidateSegment validates all segment fields
func ValidateSegment(params SegmentValidationParams) *ValidationResult {
	result := NewValidationResult()

	name := strings.TrimSpace(params.Name)
	switch {
	case name == "":
		result.AddError("name", "Name is required")
	case utf8.RuneCountInString(name) > MaxSegmentNameLength:
		result.AddError("name", fmt.Sprintf("Name must not exceed %d characters", MaxSegmentNameLength))
	}

	if params.Color != "" && !colorPattern.MatchString(params.Color) {
		result.AddError("color", "Color must be a hex value like #1565c0")
	}

	if len(params.Filters) > MaxFilterKeys {
		result.AddError("filters", fmt.Sprintf("A segment may have at most %d filters", MaxFilterKeys))
		return result
	}
	for key, value := range params.Filters {
		if strings.TrimSpace(key) == "" {
			result.AddError("filters", "Filter names cannot be empty")
			continue
		}
		if isZeroNumber(value) && lead.UnknownWhenZero(key) {
			result.AddError("filters."+key, "0 means unknown for this field and matches no lead")
			continue
		}
		s := segment.Segment{ID: "check", Name: "check", Filters: map[string]any{key: value}}
		if err := s.Validate(); err != nil {
			result.AddError("filters."+key, "Filter value must be text, a number or true/false")
		}
	}

	return result
}

// ValidateSegmentDeletion refuses to delete the built-in segments
func ValidateSegmentDeletion(id string) *ValidationResult {
	result := NewValidationResult()
	if segment.IsReserved(id) {
		result.AddError("id", fmt.Sprintf("Segment %q is built in and cannot be deleted", id))
	}
	return result
}

// ValidateID validates a lead or segment id
func ValidateID(id string) *ValidationResult {
	result := NewValidationResult()
	id = strings.TrimSpace(id)

	if id == "" {
		result.AddError("id", "ID is required")
		return result
	}
	if utf8.RuneCountInString(id) > MaxIDLength {
		result.AddError("id", fmt.Sprintf("ID must not exceed %d characters", MaxIDLength))
	}
	return result
}

// ValidateThresholds reports which threshold breaks the ordering
func ValidateThresholds(t threshold.Thresholds) *ValidationResult {
	result := NewValidationResult()

	switch t.Scale {
	case threshold.ScalePercent:
		if t.FairLeadMax < 0 {
			result.AddError("fairLeadMax", "Fair lead maximum must be at least 0")
		}
		if t.GoodLead > 100 {
			result.AddError("goodLead", "Good lead threshold must not exceed 100")
		}
		if t.FairLeadMax >= t.GoodLead {
			result.AddError("fairLeadMax", "Fair lead maximum must be below the good lead threshold")
		}
	case threshold.ScaleRaw:
		if t.PoorLead < 0 {
			result.AddError("poorLead", "Poor lead threshold must be at least 0")
		}
		if t.PoorLead >= t.FairLeadMin {
			result.AddError("poorLead", "Poor lead threshold must be below the fair lead minimum")
		}
		if t.FairLeadMin > t.FairLeadMax {
			result.AddError("fairLeadMin", "Fair lead minimum must not exceed the fair lead maximum")
		}
		if t.FairLeadMax >= t.GoodLead {
			result.AddError("fairLeadMax", "Fair lead maximum must be below the good lead threshold")
		}
		if t.GoodLead > 10 {
			result.AddError("goodLead", "Good lead threshold must not exceed 10")
		}
	default:
		result.AddError("scale", "Scale must be percent or raw")
		return result
	}

	// catches NaN and anything the field checks above missed
	if result.Valid {
		if err := t.Validate(); err != nil {
			result.AddError("thresholds", err.Error())
		}
	}
	return result
}

// ValidateEmailConfig validates the tier of each email class
func ValidateEmailConfig(c emaildomain.Config) *ValidationResult {
	result := NewValidationResult()
	for field, tier := range map[string]emaildomain.Tier{
		"corporate": c.Corporate,
		"personal":  c.Personal,
		"abusive":   c.Abusive,
	} {
		switch {
		case tier == "":
			result.AddError(field, "Tier is required")
		case !tier.Valid():
			result.AddError(field, "Tier must be high, medium or low")
		}
	}
	return result
}

// ValidateRuleSet maps rule set errors onto criterion and condition fields
func ValidateRuleSet(rs rules.RuleSet) *ValidationResult {
	result := NewValidationResult()

	for _, cr := range rs.Criteria {
		single := rules.RuleSet{Criteria: []rules.CriterionRule{cr}}
		if err := rules.ValidateRuleSet(single); err != nil {
			result.AddError("criteria."+cr.Criterion.ID, ruleMessage(err))
		}
	}
	if result.Valid {
		if err := rules.ValidateRuleSet(rs); err != nil {
			result.AddError("criteria", ruleMessage(err))
		}
	}
	return result
}

func isZeroNumber(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}

func ruleMessage(err error) string {
	switch {
	case errors.Is(err, rules.ErrInvalidWeight):
		return fmt.Sprintf("Weight must be between %d and %d", rules.MinWeight, rules.MaxWeight)
	case errors.Is(err, rules.ErrSchemaMismatch):
		return "Condition value does not fit the criterion type"
	case errors.Is(err, rules.ErrEmptyCriterion):
		return "Criterion needs at least one condition"
	case errors.Is(err, rules.ErrDuplicateCriterion):
		return "Criterion may only be added once"
	case errors.Is(err, rules.ErrInvalidCombinator):
		return "Conditions after the first must be joined with and/or"
	default:
		return err.Error()
	}
}
