// Package threshold maps normalized lead scores to quality tiers.
package threshold

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sentinel errors for threshold edits.
var (
	ErrThresholdOrder = errors.New("threshold ordering violated")
	ErrInvalidField   = errors.New("invalid threshold field")
	ErrInvalidScale   = errors.New("invalid score scale")
	ErrInvalidTier    = errors.New("invalid tier")
	ErrInvalidPolicy  = errors.New("invalid threshold edit policy")
)

// Scale is the range scores are normalized to.
type Scale string

const (
	// ScalePercent scores in [0,100] with three bands.
	ScalePercent Scale = "percent"
	// ScaleRaw scores in [0,10] with four bands.
	ScaleRaw Scale = "raw"
)

// Max returns the upper bound of the scale.
func (s Scale) Max() float64 {
	if s == ScaleRaw {
		return 10
	}
	return 100
}

// ParseScale parses a scale name.
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case ScalePercent:
		return ScalePercent, nil
	case ScaleRaw:
		return ScaleRaw, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScale, s)
}

// Tier is a qualitative score bucket.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
)

// Tiers lists the tiers of a scale from best to worst.
func Tiers(s Scale) []Tier {
	if s == ScaleRaw {
		return []Tier{TierExcellent, TierGood, TierFair, TierPoor}
	}
	return []Tier{TierExcellent, TierGood, TierFair}
}

// Rank orders tiers; higher is better. Unknown tiers rank below poor.
func Rank(t Tier) int {
	switch t {
	case TierExcellent:
		return 3
	case TierGood:
		return 2
	case TierFair:
		return 1
	case TierPoor:
		return 0
	default:
		return -1
	}
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if Rank(t) < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// Label returns the display form of a tier, e.g. "Excellent".
func (t Tier) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Field names one editable threshold.
type Field string

const (
	FieldGoodLead    Field = "goodLead"
	FieldFairLeadMin Field = "fairLeadMin"
	FieldFairLeadMax Field = "fairLeadMax"
	FieldPoorLead    Field = "poorLead"
)

// ParseField accepts the camelCase name or its snake_case form.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "goodlead", "good":
		return FieldGoodLead, nil
	case "fairleadmin", "fairmin":
		return FieldFairLeadMin, nil
	case "fairleadmax", "fairmax":
		return FieldFairLeadMax, nil
	case "poorlead", "poor":
		return FieldPoorLead, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
}

// Thresholds are the band boundaries for one scale.
//
// Percent: 0 <= FairLeadMax < GoodLead <= 100. FairLeadMin and PoorLead are unused.
// Raw: 0 <= PoorLead < FairLeadMin <= FairLeadMax < GoodLead <= 10.
type Thresholds struct {
	Scale       Scale   `json:"scale" yaml:"scale"`
	GoodLead    float64 `json:"goodLead" yaml:"goodLead"`
	FairLeadMin float64 `json:"fairLeadMin" yaml:"fairLeadMin"`
	FairLeadMax float64 `json:"fairLeadMax" yaml:"fairLeadMax"`
	PoorLead    float64 `json:"poorLead" yaml:"poorLead"`
}

// Defaults returns the stock thresholds for a scale.
func Defaults(s Scale) Thresholds {
	if s == ScaleRaw {
		return Thresholds{Scale: ScaleRaw, GoodLead: 8, FairLeadMin: 4, FairLeadMax: 6, PoorLead: 3}
	}
	return Thresholds{Scale: ScalePercent, GoodLead: 70, FairLeadMax: 40}
}

// Validate checks the ordering invariant for the thresholds' scale.
func (t Thresholds) Validate() error {
	for _, v := range []float64{t.GoodLead, t.FairLeadMin, t.FairLeadMax, t.PoorLead} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: thresholds must be finite", ErrThresholdOrder)
		}
	}
	switch t.Scale {
	case ScalePercent:
		if !(0 <= t.FairLeadMax && t.FairLeadMax < t.GoodLead && t.GoodLead <= 100) {
			return fmt.Errorf("%w: need 0 <= fairLeadMax (%v) < goodLead (%v) <= 100",
				ErrThresholdOrder, t.FairLeadMax, t.GoodLead)
		}
	case ScaleRaw:
		if !(0 <= t.PoorLead && t.PoorLead < t.FairLeadMin && t.FairLeadMin <= t.FairLeadMax &&
			t.FairLeadMax < t.GoodLead && t.GoodLead <= 10) {
			return fmt.Errorf("%w: need 0 <= poorLead (%v) < fairLeadMin (%v) <= fairLeadMax (%v) < goodLead (%v) <= 10",
				ErrThresholdOrder, t.PoorLead, t.FairLeadMin, t.FairLeadMax, t.GoodLead)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScale, t.Scale)
	}
	return nil
}

// Get returns the current value of a field.
func (t Thresholds) Get(f Field) (float64, error) {
	switch f {
	case FieldGoodLead:
		return t.GoodLead, nil
	case FieldFairLeadMin:
		return t.FairLeadMin, nil
	case FieldFairLeadMax:
		return t.FairLeadMax, nil
	case FieldPoorLead:
		return t.PoorLead, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidField, f)
}

// With returns a copy of t with f set to v. The ordering is not checked.
func (t Thresholds) With(f Field, v float64) Thresholds {
	t.put(f, v)
	return t
}

func (t *Thresholds) put(f Field, v float64) {
	switch f {
	case FieldGoodLead:
		t.GoodLead = v
	case FieldFairLeadMin:
		t.FairLeadMin = v
	case FieldFairLeadMax:
		t.FairLeadMax = v
	case FieldPoorLead:
		t.PoorLead = v
	}
}

func (t Thresholds) checkField(f Field) error {
	if _, err := t.Get(f); err != nil {
		return err
	}
	if t.Scale == ScalePercent && (f == FieldFairLeadMin || f == FieldPoorLead) {
		return fmt.Errorf("%w: %s is not used on the percent scale", ErrInvalidField, f)
	}
	return nil
}

// Set assigns v to f. An edit that would break the ordering is rejected
// with ErrThresholdOrder and t is left unchanged.
func (t *Thresholds) Set(f Field, v float64) error {
	if err := t.checkField(f); err != nil {
		return err
	}
	candidate := *t
	candidate.put(f, v)
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("%w (%s=%v rejected)", err, f, v)
	}
	*t = candidate
	return nil
}

// clampStep is the smallest gap kept between strictly ordered thresholds.
const clampStep = 0.01

// Clamp assigns the valid value nearest to v and returns it. When the other
// thresholds leave no room for f, t is left unchanged and ErrThresholdOrder
// is returned.
func (t *Thresholds) Clamp(f Field, v float64) (float64, error) {
	if err := t.checkField(f); err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s is NaN", ErrThresholdOrder, f)
	}
	lo, hi := t.bounds(f)
	if lo > hi {
		prior, _ := t.Get(f)
		return prior, fmt.Errorf("%w: no valid value for %s", ErrThresholdOrder, f)
	}
	v = roundScore(math.Min(math.Max(v, lo), hi))
	candidate := *t
	candidate.put(f, v)
	if err := candidate.Validate(); err != nil {
		prior, _ := t.Get(f)
		return prior, err
	}
	*t = candidate
	return v, nil
}

// bounds returns the inclusive interval f may take given the other fields.
func (t Thresholds) bounds(f Field) (lo, hi float64) {
	maxScore := t.Scale.Max()
	switch t.Scale {
	case ScalePercent:
		switch f {
		case FieldGoodLead:
			return t.FairLeadMax + clampStep, maxScore
		case FieldFairLeadMax:
			return 0, t.GoodLead - clampStep
		}
	case ScaleRaw:
		switch f {
		case FieldGoodLead:
			return t.FairLeadMax + clampStep, maxScore
		case FieldFairLeadMax:
			return t.FairLeadMin, t.GoodLead - clampStep
		case FieldFairLeadMin:
			return t.PoorLead + clampStep, t.FairLeadMax
		case FieldPoorLead:
			return 0, t.FairLeadMin - clampStep
		}
	}
	return 1, 0
}

// EditPolicy decides what happens to an out-of-order threshold edit.
type EditPolicy string

const (
	PolicyReject EditPolicy = "reject"
	PolicyClamp  EditPolicy = "clamp"
)

// ParseEditPolicy parses reject or clamp.
func ParseEditPolicy(s string) (EditPolicy, error) {
	switch EditPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyReject:
		return PolicyReject, nil
	case PolicyClamp:
		return PolicyClamp, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// Edit applies v to f under the given policy and returns the stored value.
func (t *Thresholds) Edit(p EditPolicy, f Field, v float64) (float64, error) {
	if p == PolicyClamp {
		return t.Clamp(f, v)
	}
	if err := t.Set(f, v); err != nil {
		prior, _ := t.Get(f)
		return prior, err
	}
	return v, nil
}

// Classify maps a score to its tier. It assumes t is valid. Scores outside
// the scale fall into the lowest or highest band.
func Classify(score float64, t Thresholds) Tier {
	switch {
	case score >= t.GoodLead:
		return TierExcellent
	case score > t.FairLeadMax:
		return TierGood
	case t.Scale == ScaleRaw && score < t.FairLeadMin:
		return TierPoor
	default:
		return TierFair
	}
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
