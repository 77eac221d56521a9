package emaildomain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid email domain config")

// Tier is the score tier assigned to an email class.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// MaxPoints is the fixed weight of the email domain in a lead score.
const MaxPoints = 10

// Points returns the score contribution of a tier.
func (t Tier) Points() int {
	switch t {
	case TierHigh:
		return MaxPoints
	case TierMedium:
		return MaxPoints / 2
	default:
		return 0
	}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierHigh || t == TierMedium || t == TierLow
}

// Config maps each email class to a tier.
type Config struct {
	Corporate Tier `json:"corporate" yaml:"corporate"`
	Personal  Tier `json:"personal" yaml:"personal"`
	Abusive   Tier `json:"abusive" yaml:"abusive"`
}

// DefaultConfig returns {corporate: high, personal: medium, abusive: low}.
func DefaultConfig() Config {
	return Config{Corporate: TierHigh, Personal: TierMedium, Abusive: TierLow}
}

// Score returns the configured tier for a class. Unknown classes score as
// abusive.
func (c Config) Score(class Class) Tier {
	switch class {
	case ClassCorporate:
		return c.Corporate
	case ClassPersonal:
		return c.Personal
	default:
		return c.Abusive
	}
}

// Validate checks that all three tiers are present and known.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		tier Tier
	}{
		{"corporate", c.Corporate},
		{"personal", c.Personal},
		{"abusive", c.Abusive},
	} {
		if f.tier == "" {
			return fmt.Errorf("%w: %s tier is required", ErrInvalidConfig, f.name)
		}
		if !f.tier.Valid() {
			return fmt.Errorf("%w: %s tier %q must be high, medium or low", ErrInvalidConfig, f.name, f.tier)
		}
	}
	return nil
}
