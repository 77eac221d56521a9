package rules

import (
	"fmt"

	"github.com/google/uuid"
)

// RuleSet is the ordered list of criteria a lead is scored against.
// A criterion appears at most once and always holds at least one condition.
type RuleSet struct {
	Criteria []CriterionRule `json:"criteria"`
}

// Len returns the number of criteria.
func (rs RuleSet) Len() int {
	return len(rs.Criteria)
}

// Criterion returns the rule for the given criterion id.
func (rs *RuleSet) Criterion(id string) (*CriterionRule, bool) {
	i := rs.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return &rs.Criteria[i], true
}

// AddCriterion appends a criterion with its first condition.
func (rs *RuleSet) AddCriterion(c Criterion, first Condition) error {
	if rs.indexOf(c.ID) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateCriterion, c.ID)
	}
	first.Combinator = CombinatorNone
	if first.ID == "" {
		first.ID = uuid.NewString()
	}
	if err := validateCondition(c, 0, first); err != nil {
		return err
	}
	rs.Criteria = append(rs.Criteria, CriterionRule{
		Criterion:  c,
		Conditions: []Condition{first},
	})
	return nil
}

// AddCondition appends a condition to an existing criterion.
// A blank combinator defaults to or.
func (rs *RuleSet) AddCondition(criterionID string, cond Condition) (Condition, error) {
	i := rs.indexOf(criterionID)
	if i < 0 {
		return Condition{}, fmt.Errorf("%w: %q", ErrUnknownCriterion, criterionID)
	}
	cr := &rs.Criteria[i]
	if cond.ID == "" {
		cond.ID = uuid.NewString()
	}
	for _, existing := range cr.Conditions {
		if existing.ID == cond.ID {
			return Condition{}, fmt.Errorf("%w: condition %q already exists in %q", ErrInvalidCondition, cond.ID, criterionID)
		}
	}
	if cond.Combinator == CombinatorNone {
		cond.Combinator = CombinatorOr
	}
	if err := validateCondition(cr.Criterion, len(cr.Conditions), cond); err != nil {
		return Condition{}, err
	}
	cr.Conditions = append(cr.Conditions, cond)
	return cond, nil
}

// UpdateCondition replaces the value, weight and combinator of a condition.
func (rs *RuleSet) UpdateCondition(criterionID string, cond Condition) error {
	i := rs.indexOf(criterionID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCriterion, criterionID)
	}
	cr := &rs.Criteria[i]
	for j := range cr.Conditions {
		if cr.Conditions[j].ID != cond.ID {
			continue
		}
		if j == 0 {
			cond.Combinator = CombinatorNone
		} else if cond.Combinator == CombinatorNone {
			cond.Combinator = cr.Conditions[j].Combinator
		}
		if err := validateCondition(cr.Criterion, j, cond); err != nil {
			return err
		}
		cr.Conditions[j] = cond
		return nil
	}
	return fmt.Errorf("%w: %q in %q", ErrUnknownCondition, cond.ID, criterionID)
}

// RemoveCondition deletes a condition. Removing the last condition of a
// criterion removes the criterion as well; removedCriterion reports that.
func (rs *RuleSet) RemoveCondition(criterionID, conditionID string) (removedCriterion bool, err error) {
	i := rs.indexOf(criterionID)
	if i < 0 {
		return false, fmt.Errorf("%w: %q", ErrUnknownCriterion, criterionID)
	}
	cr := &rs.Criteria[i]
	j := -1
	for k, c := range cr.Conditions {
		if c.ID == conditionID {
			j = k
			break
		}
	}
	if j < 0 {
		return false, fmt.Errorf("%w: %q in %q", ErrUnknownCondition, conditionID, criterionID)
	}

	cr.Conditions = append(cr.Conditions[:j:j], cr.Conditions[j+1:]...)
	if len(cr.Conditions) == 0 {
		rs.Criteria = append(rs.Criteria[:i:i], rs.Criteria[i+1:]...)
		return true, nil
	}
	// the new head starts the group
	cr.Conditions[0].Combinator = CombinatorNone
	return false, nil
}

// RemoveCriterion deletes a criterion and all of its conditions.
func (rs *RuleSet) RemoveCriterion(criterionID string) error {
	i := rs.indexOf(criterionID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCriterion, criterionID)
	}
	rs.Criteria = append(rs.Criteria[:i:i], rs.Criteria[i+1:]...)
	return nil
}

// Clone returns a deep copy that shares no slices with rs.
func (rs RuleSet) Clone() RuleSet {
	out := RuleSet{Criteria: make([]CriterionRule, len(rs.Criteria))}
	for i, cr := range rs.Criteria {
		c := cr.Criterion
		c.Options = append([]string(nil), cr.Criterion.Options...)
		conds := make([]Condition, len(cr.Conditions))
		for j, cond := range cr.Conditions {
			if mc, ok := cond.Value.(MultiChoiceValue); ok {
				cond.Value = append(MultiChoiceValue(nil), mc...)
			}
			conds[j] = cond
		}
		out.Criteria[i] = CriterionRule{Criterion: c, Conditions: conds}
	}
	return out
}

func (rs *RuleSet) indexOf(id string) int {
	for i, cr := range rs.Criteria {
		if cr.Criterion.ID == id {
			return i
		}
	}
	return -1
}
