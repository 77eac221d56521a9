package engine

import (
	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// Contribution explains how one criterion affected a score.
type Contribution struct {
	CriterionID string `json:"criterionId"`
	Label       string `json:"label,omitempty"`
	Matched     bool   `json:"matched"`
	ConditionID string `json:"conditionId,omitempty"`
	Weight      int    `json:"weight"`
	MaxWeight   int    `json:"maxWeight"`
}

// Skipped records a condition left out of scoring because its value kind
// does not match its criterion.
type Skipped struct {
	CriterionID string `json:"criterionId"`
	ConditionID string `json:"conditionId,omitempty"`
	Reason      string `json:"reason"`
}

// EmailScore is the email domain part of a score.
type EmailScore struct {
	Class  emaildomain.Class `json:"class"`
	Tier   emaildomain.Tier  `json:"tier"`
	Points int               `json:"points"`
}

// Result is the deterministic output of Evaluate.
type Result struct {
	Score         float64         `json:"score"`
	Scale         threshold.Scale `json:"scale"`
	Total         int             `json:"total"`
	MaxTotal      int             `json:"maxTotal"`
	Email         EmailScore      `json:"email"`
	Contributions []Contribution  `json:"contributions"`
	Skipped       []Skipped       `json:"skipped,omitempty"`
}
