package rules

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors returned by rule set operations and ValidateRuleSet.
var (
	ErrInvalidCriterion   = errors.New("invalid criterion")
	ErrInvalidCondition   = errors.New("invalid condition")
	ErrInvalidWeight      = errors.New("invalid weight")
	ErrInvalidCombinator  = errors.New("invalid combinator")
	ErrSchemaMismatch     = errors.New("condition value does not match criterion kind")
	ErrDuplicateCriterion = errors.New("duplicate criterion")
	ErrUnknownCriterion   = errors.New("unknown criterion")
	ErrUnknownCondition   = errors.New("unknown condition")
	ErrEmptyCriterion     = errors.New("criterion has no conditions")
)

var validKinds = map[ValueKind]struct{}{
	KindChoice:      {},
	KindMultiChoice: {},
	KindRange:       {},
	KindText:        {},
}

var validRangeOps = map[RangeOp]struct{}{
	RangeBetween:     {},
	RangeGreaterThan: {},
	RangeLessThan:    {},
}

// ValidateCriterion checks a catalog entry.
func ValidateCriterion(c Criterion) error {
	if c.ID == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidCriterion)
	}
	if _, ok := validKinds[c.Kind]; !ok {
		return fmt.Errorf("%w: %q has unsupported kind %q", ErrInvalidCriterion, c.ID, c.Kind)
	}
	switch c.Kind {
	case KindChoice, KindMultiChoice:
		if len(c.Options) == 0 {
			return fmt.Errorf("%w: %q requires options", ErrInvalidCriterion, c.ID)
		}
	default:
		if len(c.Options) > 0 {
			return fmt.Errorf("%w: %q of kind %q must not declare options", ErrInvalidCriterion, c.ID, c.Kind)
		}
	}
	return nil
}

// ValidateRuleSet performs strict validation of a whole rule set.
// It is a pure function: it never mutates rs.
func ValidateRuleSet(rs RuleSet) error {
	seen := make(map[string]struct{}, len(rs.Criteria))
	for _, cr := range rs.Criteria {
		if err := ValidateCriterion(cr.Criterion); err != nil {
			return err
		}
		if _, dup := seen[cr.Criterion.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateCriterion, cr.Criterion.ID)
		}
		seen[cr.Criterion.ID] = struct{}{}

		if len(cr.Conditions) == 0 {
			return fmt.Errorf("%w: %q", ErrEmptyCriterion, cr.Criterion.ID)
		}
		ids := make(map[string]struct{}, len(cr.Conditions))
		for i, cond := range cr.Conditions {
			if _, dup := ids[cond.ID]; dup {
				return fmt.Errorf("%w: %q condition[%d] duplicates id %q", ErrInvalidCondition, cr.Criterion.ID, i, cond.ID)
			}
			ids[cond.ID] = struct{}{}
			if err := validateCondition(cr.Criterion, i, cond); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCondition(c Criterion, i int, cond Condition) error {
	if cond.ID == "" {
		return fmt.Errorf("%w: %q condition[%d] id must not be empty", ErrInvalidCondition, c.ID, i)
	}
	if cond.Weight < MinWeight || cond.Weight > MaxWeight {
		return fmt.Errorf("%w: %q condition[%d] weight %d outside [%d,%d]", ErrInvalidWeight, c.ID, i, cond.Weight, MinWeight, MaxWeight)
	}
	switch cond.Combinator {
	case CombinatorNone:
		if i > 0 {
			return fmt.Errorf("%w: %q condition[%d] needs and/or", ErrInvalidCombinator, c.ID, i)
		}
	case CombinatorAnd, CombinatorOr:
		if i == 0 {
			return fmt.Errorf("%w: %q first condition must not carry a combinator", ErrInvalidCombinator, c.ID)
		}
	default:
		return fmt.Errorf("%w: %q condition[%d] combinator %q", ErrInvalidCombinator, c.ID, i, cond.Combinator)
	}
	return CheckValue(c, cond.Value)
}

// CheckValue reports ErrSchemaMismatch when v does not fit the criterion's
// kind, and ErrInvalidCondition when it fits but is malformed.
func CheckValue(c Criterion, v Value) error {
	if v == nil {
		return fmt.Errorf("%w: %q has no value", ErrSchemaMismatch, c.ID)
	}
	if v.Kind() != c.Kind {
		return fmt.Errorf("%w: %q is %s, value is %s", ErrSchemaMismatch, c.ID, c.Kind, v.Kind())
	}

	switch val := v.(type) {
	case ChoiceValue:
		if !hasOption(c.Options, string(val)) {
			return fmt.Errorf("%w: %q has no option %q", ErrInvalidCondition, c.ID, string(val))
		}
	case MultiChoiceValue:
		if len(val) == 0 {
			return fmt.Errorf("%w: %q selects no options", ErrInvalidCondition, c.ID)
		}
		for _, opt := range val {
			if !hasOption(c.Options, opt) {
				return fmt.Errorf("%w: %q has no option %q", ErrInvalidCondition, c.ID, opt)
			}
		}
	case RangeValue:
		if _, ok := validRangeOps[val.Op]; !ok {
			return fmt.Errorf("%w: %q range operator %q", ErrInvalidCondition, c.ID, val.Op)
		}
		if math.IsNaN(val.Min) || math.IsNaN(val.Max) {
			return fmt.Errorf("%w: %q range bound is NaN", ErrInvalidCondition, c.ID)
		}
		if val.Op == RangeBetween && val.Min > val.Max {
			return fmt.Errorf("%w: %q range min %v exceeds max %v", ErrInvalidCondition, c.ID, val.Min, val.Max)
		}
	case TextValue:
		if val == "" {
			return fmt.Errorf("%w: %q text must not be empty", ErrInvalidCondition, c.ID)
		}
	}
	return nil
}

func hasOption(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
