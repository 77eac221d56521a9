package evaluation

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

var regionCriterion = rules.Criterion{
	ID:      "region",
	Label:   "Region",
	Kind:    rules.KindChoice,
	Options: []string{"Europe", "North America", "APAC"},
}

func europeConfig() Config {
	cfg := DefaultConfig(threshold.ScalePercent)
	cfg.RuleSet = rules.RuleSet{Criteria: []rules.CriterionRule{{
		Criterion:  regionCriterion,
		Conditions: []rules.Condition{{ID: "eu", Value: rules.ChoiceValue("Europe"), Weight: 8}},
	}}}
	return cfg
}

func TestEvaluator_Lead(t *testing.T) {
	ev := New(europeConfig())

	tests := []struct {
		name          string
		in            lead.Lead
		wantClass     emaildomain.Class
		wantScore     float64
		wantTier      threshold.Tier
		wantQualified bool
	}{
		{
			name:          "corporate in europe",
			in:            lead.Lead{ID: "1", Email: "x@bigco.com", Region: "Europe"},
			wantClass:     emaildomain.ClassCorporate,
			wantScore:     100,
			wantTier:      threshold.TierExcellent,
			wantQualified: true,
		},
		{
			name:          "personal in europe",
			in:            lead.Lead{ID: "2", Email: "x@gmail.com", Region: "Europe"},
			wantClass:     emaildomain.ClassPersonal,
			wantScore:     72.22,
			wantTier:      threshold.TierExcellent,
			wantQualified: true,
		},
		{
			name:          "corporate elsewhere",
			in:            lead.Lead{ID: "3", Email: "x@bigco.com", Region: "APAC"},
			wantClass:     emaildomain.ClassCorporate,
			wantScore:     55.56,
			wantTier:      threshold.TierGood,
			wantQualified: true,
		},
		{
			name:          "abusive elsewhere",
			in:            lead.Lead{ID: "4", Email: "x@mailinator.com", Region: "APAC"},
			wantClass:     emaildomain.ClassAbusive,
			wantScore:     0,
			wantTier:      threshold.TierFair,
			wantQualified: false,
		},
		{
			name:          "manual override survives a low score",
			in:            lead.Lead{ID: "5", Email: "broken", ManuallyQualified: true},
			wantClass:     emaildomain.ClassAbusive,
			wantScore:     0,
			wantTier:      threshold.TierFair,
			wantQualified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.Lead(tt.in)
			if got.EmailDomainClass != tt.wantClass {
				t.Errorf("class = %s, want %s", got.EmailDomainClass, tt.wantClass)
			}
			if got.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("tier = %s, want %s", got.Tier, tt.wantTier)
			}
			if got.Qualified != tt.wantQualified {
				t.Errorf("qualified = %v, want %v", got.Qualified, tt.wantQualified)
			}
		})
	}
}

func TestEvaluator_QualifyingTier(t *testing.T) {
	cfg := europeConfig()
	cfg.QualifyingTier = threshold.TierExcellent
	ev := New(cfg)

	if got := ev.Lead(lead.Lead{Email: "x@bigco.com", Region: "APAC"}); got.Qualified {
		t.Errorf("good lead should not qualify at tier excellent: %+v", got)
	}
}

func TestEvaluator_AllPreservesOrderAndInput(t *testing.T) {
	ev := New(europeConfig())
	in := []lead.Lead{
		{ID: "a", Email: "x@bigco.com", Region: "APAC"},
		{ID: "b", Email: "x@bigco.com", Region: "Europe"},
	}
	got := ev.All(in)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("All() = %+v", got)
	}
	if in[0].Score != 0 || in[0].Tier != "" {
		t.Error("All modified its input")
	}
	if out := ev.All(nil); out == nil || len(out) != 0 {
		t.Errorf("All(nil) = %#v, want empty non-nil slice", out)
	}
}

func TestEvaluator_ConfigIsPrivateCopy(t *testing.T) {
	cfg := europeConfig()
	ev := New(cfg)
	cfg.RuleSet.Criteria[0].Conditions[0].Value = rules.ChoiceValue("APAC")

	if got := ev.Lead(lead.Lead{Email: "x@bigco.com", Region: "Europe"}); got.Score != 100 {
		t.Errorf("evaluator observed caller mutation, score = %v", got.Score)
	}
}

func TestEvaluator_LogsSkippedConditions(t *testing.T) {
	cfg := europeConfig()
	cfg.RuleSet.Criteria[0].Conditions = append(cfg.RuleSet.Criteria[0].Conditions, rules.Condition{
		ID: "oops", Value: rules.TextValue("Europe"), Weight: 10, Combinator: rules.CombinatorOr,
	})

	var buf bytes.Buffer
	ev := New(cfg, WithLogger(zerolog.New(&buf)))
	b := ev.Breakdown(lead.Lead{ID: "l1", Email: "x@bigco.com", Region: "Europe"})

	if len(b.Result.Skipped) != 1 || b.Result.Skipped[0].ConditionID != "oops" {
		t.Fatalf("Skipped = %+v", b.Result.Skipped)
	}
	if b.Lead.Score != 100 {
		t.Errorf("score = %v, want 100", b.Lead.Score)
	}
	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"condition":"oops"`) {
		t.Errorf("log output = %s", out)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := europeConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := europeConfig()
	bad.Thresholds.FairLeadMax = 90
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, threshold.ErrThresholdOrder) {
		t.Errorf("thresholds: error = %v", err)
	}

	bad = europeConfig()
	bad.QualifyingTier = threshold.TierPoor
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("poor is not a percent tier: error = %v", err)
	}

	bad = europeConfig()
	bad.RuleSet.Criteria[0].Conditions[0].Weight = 0
	if err := bad.Validate(); !errors.Is(err, rules.ErrInvalidWeight) {
		t.Errorf("weight: error = %v", err)
	}
}
