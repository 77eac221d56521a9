// Package engine scores a lead against a rule set and an email domain config.
package engine

import (
	"errors"
	"math"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// Evaluate computes the normalized score of l. It is pure and never fails:
// conditions whose value kind does not match their criterion are skipped and
// reported in Result.Skipped.
//
// Each criterion folds its conditions left to right (acc = acc OP cond) and,
// when the fold is true, contributes the weight of its heaviest individually
// matching condition, the earliest one on ties. The email domain tier adds up
// to emaildomain.MaxPoints. The total is divided by the maximum attainable
// total and scaled to the threshold scale.
func Evaluate(l *lead.Lead, rs rules.RuleSet, emailCfg emaildomain.Config, scale threshold.Scale) Result {
	result := Result{
		Scale:         scale,
		Contributions: make([]Contribution, 0, len(rs.Criteria)),
	}

	for _, cr := range rs.Criteria {
		conds, skipped := usableConditions(cr)
		result.Skipped = append(result.Skipped, skipped...)
		if len(conds) == 0 {
			continue
		}

		c := evaluateCriterion(l, cr.Criterion, conds)
		result.Contributions = append(result.Contributions, c)
		result.Total += c.Weight
		result.MaxTotal += c.MaxWeight
	}

	email := ""
	if l != nil {
		email = l.Email
	}
	class := emaildomain.ClassifyOrAbusive(email)
	tier := emailCfg.Score(class)
	result.Email = EmailScore{Class: class, Tier: tier, Points: tier.Points()}
	result.Total += result.Email.Points
	result.MaxTotal += emaildomain.MaxPoints

	result.Score = normalize(result.Total, result.MaxTotal, scale.Max())
	return result
}

// Matches reports whether the folded conditions of a criterion hold for l.
// Conditions with a mismatched value kind are ignored.
func Matches(l *lead.Lead, cr rules.CriterionRule) bool {
	conds, _ := usableConditions(cr)
	if len(conds) == 0 {
		return false
	}
	return evaluateCriterion(l, cr.Criterion, conds).Matched
}

func usableConditions(cr rules.CriterionRule) ([]rules.Condition, []Skipped) {
	var (
		conds   = make([]rules.Condition, 0, len(cr.Conditions))
		skipped []Skipped
	)
	for _, cond := range cr.Conditions {
		if err := rules.CheckValue(cr.Criterion, cond.Value); errors.Is(err, rules.ErrSchemaMismatch) {
			skipped = append(skipped, Skipped{
				CriterionID: cr.Criterion.ID,
				ConditionID: cond.ID,
				Reason:      err.Error(),
			})
			continue
		}
		conds = append(conds, cond)
	}
	return conds, skipped
}

func evaluateCriterion(l *lead.Lead, c rules.Criterion, conds []rules.Condition) Contribution {
	out := Contribution{CriterionID: c.ID, Label: c.Label}

	leadValue, present := l.Field(c.ID)
	handler, known := getValueHandler(c.Kind)

	var acc bool
	best := -1
	for i, cond := range conds {
		if cond.Weight > out.MaxWeight {
			out.MaxWeight = cond.Weight
		}

		hit := present && known && handler.Check(leadValue, cond.Value)
		if hit && (best < 0 || cond.Weight > conds[best].Weight) {
			best = i
		}

		switch {
		case i == 0:
			acc = hit
		case cond.Combinator == rules.CombinatorAnd:
			acc = acc && hit
		default:
			acc = acc || hit
		}
	}

	if acc && best >= 0 {
		out.Matched = true
		out.ConditionID = conds[best].ID
		out.Weight = conds[best].Weight
	}
	return out
}

func normalize(total, maxTotal int, scaleMax float64) float64 {
	if maxTotal <= 0 {
		return 0
	}
	score := float64(total) / float64(maxTotal) * scaleMax
	score = math.Round(score*100) / 100
	return math.Min(math.Max(score, 0), scaleMax)
}
