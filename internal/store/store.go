package store

import (
	"context"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/snapshot"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// Store defines the session operations shared by the CLI and the HTTP API.
// Implementations must be thread-safe. Every mutation is all-or-nothing: a
// rejected change leaves the session exactly as it was.
type Store interface {
	// Snapshot evaluates the current session. Each call re-evaluates every
	// lead against the current config.
	Snapshot(ctx context.Context) (*snapshot.Snapshot, error)

	// Catalog lists the criteria rules may reference.
	Catalog(ctx context.Context) ([]rules.Criterion, error)

	// UpsertLead adds a lead or replaces the one with the same id. A blank
	// id is generated. Derived fields on the input are ignored.
	UpsertLead(ctx context.Context, l lead.Lead) (lead.Lead, error)

	// MarkQualified sets the manual qualification flag. It is idempotent.
	MarkQualified(ctx context.Context, id string) error

	// SetRuleSet replaces the whole rule set after validating it.
	SetRuleSet(ctx context.Context, rs rules.RuleSet) error

	// AddCondition appends a condition, adding the criterion from the
	// catalog when the rule set does not reference it yet.
	AddCondition(ctx context.Context, criterionID string, cond rules.Condition) (rules.Condition, error)

	// RemoveCondition deletes a condition. It reports whether the criterion
	// was removed because it had no conditions left.
	RemoveCondition(ctx context.Context, criterionID, conditionID string) (bool, error)

	// SetEmailConfig replaces the email domain tiers.
	SetEmailConfig(ctx context.Context, c emaildomain.Config) error

	// EditThreshold applies the session edit policy and returns the stored
	// value.
	EditThreshold(ctx context.Context, f threshold.Field, v float64) (float64, error)

	// SetQualifyingTier changes the lowest tier that counts as qualified.
	SetQualifyingTier(ctx context.Context, t threshold.Tier) error

	// CreateSegment saves a new segment under a generated id.
	CreateSegment(ctx context.Context, name string, filters map[string]any, color string) (segment.Segment, error)

	// DeleteSegment removes a saved segment. Reserved segments cannot be
	// deleted.
	DeleteSegment(ctx context.Context, id string) error

	// SetActiveSegment selects the default segment for queries. An empty id
	// clears it.
	SetActiveSegment(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
