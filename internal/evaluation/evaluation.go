// Package evaluation turns raw leads into evaluated leads.
// It runs the score evaluator, classifies the score into a tier and derives
// the qualified flag, all from one owned Config.
//
// Testing Guide:
//
// The package has no I/O. Build a Config (DefaultConfig is a good start),
// construct an Evaluator with New and assert on the returned leads.
//
// Example:
//
//	cfg := DefaultConfig(threshold.ScalePercent)
//	cfg.RuleSet = rules.RuleSet{...}
//	ev := New(cfg)
//	got := ev.Lead(lead.Lead{Email: "x@bigco.com", Region: "Europe"})
//	// Assert on got.Score, got.Tier, got.Qualified
//
// Edge Cases to Test:
//
//   - Empty rule set: only the email domain contributes
//   - Invalid email: classified abusive, never an error
//   - Manually qualified lead: stays qualified whatever the score
//   - Schema-mismatched condition: skipped and logged, scoring continues
package evaluation

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/engine"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/telemetry"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// ErrInvalidConfig wraps every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid evaluation config")

// Config is everything needed to evaluate a lead.
type Config struct {
	RuleSet        rules.RuleSet        `json:"ruleSet"`
	Email          emaildomain.Config   `json:"email"`
	Thresholds     threshold.Thresholds `json:"thresholds"`
	QualifyingTier threshold.Tier       `json:"qualifyingTier"`
}

// DefaultConfig returns an empty rule set with default email tiers and the
// default thresholds of the given scale. Leads qualify at tier good.
func DefaultConfig(scale threshold.Scale) Config {
	return Config{
		Email:          emaildomain.DefaultConfig(),
		Thresholds:     threshold.Defaults(scale),
		QualifyingTier: threshold.TierGood,
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.RuleSet = c.RuleSet.Clone()
	return c
}

// Validate checks every part of the config.
func (c Config) Validate() error {
	if err := rules.ValidateRuleSet(c.RuleSet); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Email.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !qualifyingTierAllowed(c.QualifyingTier, c.Thresholds.Scale) {
		return fmt.Errorf("%w: qualifying tier %q is not a tier of scale %q", ErrInvalidConfig, c.QualifyingTier, c.Thresholds.Scale)
	}
	return nil
}

func qualifyingTierAllowed(t threshold.Tier, s threshold.Scale) bool {
	for _, tier := range threshold.Tiers(s) {
		if tier == t {
			return true
		}
	}
	return false
}

// Breakdown explains one evaluated lead.
type Breakdown struct {
	Lead   lead.Lead     `json:"lead"`
	Result engine.Result `json:"result"`
}

// Evaluator applies one Config to leads. It holds no mutable state and is
// safe for concurrent use.
type Evaluator struct {
	cfg    Config
	logger zerolog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for skipped conditions.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New returns an Evaluator over a private copy of cfg.
func New(cfg Config, opts ...Option) *Evaluator {
	e := &Evaluator{cfg: cfg.Clone(), logger: zerolog.Nop()}
	if e.cfg.QualifyingTier == "" {
		e.cfg.QualifyingTier = threshold.TierGood
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns a copy of the evaluator's config.
func (e *Evaluator) Config() Config {
	return e.cfg.Clone()
}

// Lead evaluates a single lead.
//
// Postconditions:
//   - Returns a copy; the input is not modified
//   - EmailDomainClass, Score, Tier and Qualified are always set
//   - Qualified is true when ManuallyQualified is set or the tier ranks at
//     or above the qualifying tier
func (e *Evaluator) Lead(l lead.Lead) lead.Lead {
	return e.Breakdown(l).Lead
}

// All evaluates every lead, preserving order. A nil input yields an empty,
// non-nil slice.
func (e *Evaluator) All(leads []lead.Lead) []lead.Lead {
	out := make([]lead.Lead, 0, len(leads))
	for _, l := range leads {
		out = append(out, e.Lead(l))
	}
	return out
}

// Breakdown evaluates a lead and returns the per-criterion explanation
// together with the evaluated copy.
func (e *Evaluator) Breakdown(l lead.Lead) Breakdown {
	out := l.Clone()
	res := engine.Evaluate(&out, e.cfg.RuleSet, e.cfg.Email, e.cfg.Thresholds.Scale)

	for _, s := range res.Skipped {
		telemetry.SchemaMismatches.WithLabelValues(s.CriterionID).Inc()
		e.logger.Warn().
			Str("lead", out.ID).
			Str("criterion", s.CriterionID).
			Str("condition", s.ConditionID).
			Msg("skipping condition: " + s.Reason)
	}

	out.EmailDomainClass = res.Email.Class
	out.Score = res.Score
	out.Tier = threshold.Classify(res.Score, e.cfg.Thresholds)
	out.Qualified = out.ManuallyQualified || threshold.Rank(out.Tier) >= threshold.Rank(e.cfg.QualifyingTier)
	telemetry.LeadsEvaluated.WithLabelValues(string(out.Tier)).Inc()

	return Breakdown{Lead: out, Result: res}
}
