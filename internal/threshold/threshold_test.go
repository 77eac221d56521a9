package threshold

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestClassify_Percent(t *testing.T) {
	th := Defaults(ScalePercent) // good 70, fairMax 40
	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierFair},
		{40, TierFair},
		{40.01, TierGood},
		{69.99, TierGood},
		{70, TierExcellent},
		{100, TierExcellent},
	}
	for _, tt := range tests {
		if got := Classify(tt.score, th); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestClassify_Raw(t *testing.T) {
	th := Defaults(ScaleRaw) // poor 3, fairMin 4, fairMax 6, good 8
	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierPoor},
		{3, TierPoor},
		{3.99, TierPoor},
		{4, TierFair},
		{6, TierFair},
		{6.5, TierGood},
		{8, TierExcellent},
		{10, TierExcellent},
	}
	for _, tt := range tests {
		if got := Classify(tt.score, th); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

// Every score maps to exactly one tier and tiers are monotone in the score.
func TestClassify_BandsPartitionScale(t *testing.T) {
	for _, th := range []Thresholds{
		Defaults(ScalePercent),
		Defaults(ScaleRaw),
		{Scale: ScalePercent, GoodLead: 100, FairLeadMax: 0},
		{Scale: ScaleRaw, GoodLead: 10, FairLeadMin: 0.5, FairLeadMax: 0.5, PoorLead: 0},
	} {
		if err := th.Validate(); err != nil {
			t.Fatalf("fixture invalid: %v", err)
		}
		allowed := map[Tier]bool{}
		for _, tier := range Tiers(th.Scale) {
			allowed[tier] = true
		}

		prev := -1
		top := th.Scale.Max()
		for i := 0; i <= 10000; i++ {
			score := top * float64(i) / 10000
			tier := Classify(score, th)
			if !allowed[tier] {
				t.Fatalf("%s: score %v classified as %q outside tier set", th.Scale, score, tier)
			}
			if Rank(tier) < prev {
				t.Fatalf("%s: tier rank decreased at score %v", th.Scale, score)
			}
			prev = Rank(tier)
		}
	}
}

// ---------------------------------------------------------------------------
// Edits
// ---------------------------------------------------------------------------

func TestSet_RejectsFairMaxAtOrAboveGood(t *testing.T) {
	for _, scale := range []Scale{ScalePercent, ScaleRaw} {
		th := Defaults(scale)
		before := th

		err := th.Set(FieldFairLeadMax, th.GoodLead)
		if !errors.Is(err, ErrThresholdOrder) {
			t.Fatalf("%s: error = %v, want ErrThresholdOrder", scale, err)
		}
		if th != before {
			t.Errorf("%s: thresholds changed after rejected edit: %+v", scale, th)
		}

		if err := th.Set(FieldFairLeadMax, th.GoodLead+5); !errors.Is(err, ErrThresholdOrder) {
			t.Errorf("%s: above good: error = %v", scale, err)
		}
		if th != before {
			t.Errorf("%s: thresholds changed after rejected edit", scale)
		}
	}
}

func TestSet_Accepts(t *testing.T) {
	th := Defaults(ScalePercent)
	if err := th.Set(FieldGoodLead, 80); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if th.GoodLead != 80 {
		t.Errorf("GoodLead = %v, want 80", th.GoodLead)
	}
}

func TestSet_PercentRejectsRawOnlyFields(t *testing.T) {
	th := Defaults(ScalePercent)
	if err := th.Set(FieldPoorLead, 10); !errors.Is(err, ErrInvalidField) {
		t.Errorf("error = %v, want ErrInvalidField", err)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		th    Thresholds
		field Field
		value float64
		want  float64
	}{
		{"percent fairMax above good", Defaults(ScalePercent), FieldFairLeadMax, 90, 69.99},
		{"percent good above 100", Defaults(ScalePercent), FieldGoodLead, 150, 100},
		{"percent good below fairMax", Defaults(ScalePercent), FieldGoodLead, 10, 40.01},
		{"raw poor above fairMin", Defaults(ScaleRaw), FieldPoorLead, 5, 3.99},
		{"raw fairMin below poor", Defaults(ScaleRaw), FieldFairLeadMin, 1, 3.01},
		{"raw fairMin above fairMax", Defaults(ScaleRaw), FieldFairLeadMin, 7, 6},
		{"raw in range untouched", Defaults(ScaleRaw), FieldGoodLead, 9, 9},
		{"raw negative poor", Defaults(ScaleRaw), FieldPoorLead, -2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := tt.th
			got, err := th.Clamp(tt.field, tt.value)
			if err != nil {
				t.Fatalf("Clamp: %v", err)
			}
			if got != tt.want {
				t.Errorf("Clamp() = %v, want %v", got, tt.want)
			}
			if err := th.Validate(); err != nil {
				t.Errorf("thresholds invalid after clamp: %v", err)
			}
		})
	}
}

func TestEdit_Policy(t *testing.T) {
	th := Defaults(ScalePercent)
	got, err := th.Edit(PolicyReject, FieldFairLeadMax, 75)
	if !errors.Is(err, ErrThresholdOrder) || got != 40 {
		t.Errorf("reject: got %v, %v", got, err)
	}
	got, err = th.Edit(PolicyClamp, FieldFairLeadMax, 75)
	if err != nil || got != 69.99 {
		t.Errorf("clamp: got %v, %v", got, err)
	}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	if f, err := ParseField("fair_lead_max"); err != nil || f != FieldFairLeadMax {
		t.Errorf("ParseField = %v, %v", f, err)
	}
	if _, err := ParseField("best"); !errors.Is(err, ErrInvalidField) {
		t.Errorf("ParseField(best) error = %v", err)
	}
	if s, err := ParseScale("RAW"); err != nil || s != ScaleRaw {
		t.Errorf("ParseScale = %v, %v", s, err)
	}
	if tier, err := ParseTier("Good"); err != nil || tier != TierGood {
		t.Errorf("ParseTier = %v, %v", tier, err)
	}
	if TierExcellent.Label() != "Excellent" {
		t.Errorf("Label = %q", TierExcellent.Label())
	}
}
