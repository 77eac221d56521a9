package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/snapshot"
	"github.com/TimurManjosov/leadgrade/internal/telemetry"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

// MemoryStore keeps one session in memory.
// Mutations are applied to a copy and swapped in only when they succeed.
type MemoryStore struct {
	mu      sync.RWMutex
	ws      *workspace.Workspace
	policy  threshold.EditPolicy
	logger  zerolog.Logger
	persist func(*workspace.Workspace) error
	// reload returns the backing copy when it changed since the last load
	// or persist, and nil otherwise.
	reload func() (*workspace.Workspace, error)
}

// NewMemoryStore creates a session store around ws. A nil ws starts an empty
// percent-scale session.
func NewMemoryStore(ws *workspace.Workspace, policy threshold.EditPolicy, logger zerolog.Logger) *MemoryStore {
	if ws == nil {
		ws = workspace.New(threshold.ScalePercent)
	}
	if policy == "" {
		policy = threshold.PolicyReject
	}
	m := &MemoryStore{ws: ws.Clone(), policy: policy, logger: logger}
	m.observe()
	return m
}

// Workspace returns a copy of the raw session.
func (m *MemoryStore) Workspace() (*workspace.Workspace, error) {
	var out *workspace.Workspace
	err := m.view(func(ws *workspace.Workspace) error {
		out = ws.Clone()
		return nil
	})
	return out, err
}

// Snapshot evaluates the session.
func (m *MemoryStore) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var snap *snapshot.Snapshot
	err := m.view(func(ws *workspace.Workspace) error {
		var err error
		snap, err = snapshot.Build(ws, m.logger)
		return err
	})
	return snap, err
}

// Catalog lists the criteria known to the session.
func (m *MemoryStore) Catalog(ctx context.Context) ([]rules.Criterion, error) {
	var out []rules.Criterion
	err := m.view(func(ws *workspace.Workspace) error {
		out = ws.Catalog.All()
		return nil
	})
	return out, err
}

// UpsertLead adds or replaces a lead.
func (m *MemoryStore) UpsertLead(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l = l.Clone()
	l.EmailDomainClass, l.Score, l.Tier = "", 0, ""
	l.Qualified = l.ManuallyQualified

	err := m.mutate(ctx, func(ws *workspace.Workspace) error {
		for i := range ws.Leads {
			if ws.Leads[i].ID == l.ID {
				ws.Leads[i] = l
				return nil
			}
		}
		ws.Leads = append(ws.Leads, l)
		return nil
	})
	if err != nil {
		return lead.Lead{}, err
	}
	return l, nil
}

// MarkQualified flags a lead as manually qualified.
func (m *MemoryStore) MarkQualified(ctx context.Context, id string) error {
	err := m.mutate(ctx, func(ws *workspace.Workspace) error {
		for i := range ws.Leads {
			if ws.Leads[i].ID == id {
				ws.Leads[i].MarkQualified()
				return nil
			}
		}
		return fmt.Errorf("%w: %q", lead.ErrNotFound, id)
	})
	if err == nil {
		telemetry.ManualQualifications.Inc()
		m.logger.Info().Str("lead", id).Msg("lead marked qualified")
	}
	return err
}

// SetRuleSet replaces the rule set. Every criterion must exist in the
// catalog with the same kind.
func (m *MemoryStore) SetRuleSet(ctx context.Context, rs rules.RuleSet) error {
	return m.mutate(ctx, func(ws *workspace.Workspace) error {
		for _, cr := range rs.Criteria {
			known, err := ws.Catalog.Lookup(cr.Criterion.ID)
			if err != nil {
				return fmt.Errorf("%w: %w", rules.ErrUnknownCriterion, err)
			}
			if known.Kind != cr.Criterion.Kind {
				return fmt.Errorf("%w: %q is %s in the catalog", rules.ErrSchemaMismatch, known.ID, known.Kind)
			}
		}
		if err := rules.ValidateRuleSet(rs); err != nil {
			return err
		}
		ws.Config.RuleSet = rs.Clone()
		return nil
	})
}

// AddCondition appends a condition to a criterion.
func (m *MemoryStore) AddCondition(ctx context.Context, criterionID string, cond rules.Condition) (rules.Condition, error) {
	var added rules.Condition
	err := m.mutate(ctx, func(ws *workspace.Workspace) error {
		rs := &ws.Config.RuleSet
		if _, ok := rs.Criterion(criterionID); ok {
			c, err := rs.AddCondition(criterionID, cond)
			added = c
			return err
		}

		crit, err := ws.Catalog.Lookup(criterionID)
		if err != nil {
			return fmt.Errorf("%w: %w", rules.ErrUnknownCriterion, err)
		}
		if err := rs.AddCriterion(crit, cond); err != nil {
			return err
		}
		cr, _ := rs.Criterion(criterionID)
		added = cr.Conditions[0]
		return nil
	})
	return added, err
}

// RemoveCondition deletes a condition.
func (m *MemoryStore) RemoveCondition(ctx context.Context, criterionID, conditionID string) (bool, error) {
	var removed bool
	err := m.mutate(ctx, func(ws *workspace.Workspace) error {
		var err error
		removed, err = ws.Config.RuleSet.RemoveCondition(criterionID, conditionID)
		return err
	})
	return removed, err
}

// SetEmailConfig replaces the email tiers.
func (m *MemoryStore) SetEmailConfig(ctx context.Context, c emaildomain.Config) error {
	return m.mutate(ctx, func(ws *workspace.Workspace) error {
		if err := c.Validate(); err != nil {
			return err
		}
		ws.Config.Email = c
		return nil
	})
}

// EditThreshold edits one threshold under the store's policy.
func (m *MemoryStore) EditThreshold(ctx context.Context, f threshold.Field, v float64) (float64, error) {
	var stored float64
	err := m.mutate(ctx, func(ws *workspace.Workspace) error {
		var err error
		stored, err = ws.Config.Thresholds.Edit(m.policy, f, v)
		return err
	})

	outcome := "accepted"
	switch {
	case err != nil:
		outcome = "rejected"
	case stored != v:
		outcome = "clamped"
	}
	telemetry.ThresholdEdits.WithLabelValues(string(f), outcome).Inc()
	m.logger.Info().
		Str("field", string(f)).
		Float64("requested", v).
		Float64("stored", stored).
		Str("outcome", outcome).
		Msg("threshold edit")
	return stored, err
}

// SetQualifyingTier changes the qualifying tier.
func (m *MemoryStore) SetQualifyingTier(ctx context.Context, t threshold.Tier) error {
	return m.mutate(ctx, func(ws *workspace.Workspace) error {
		ws.Config.QualifyingTier = t
		return ws.Config.Validate()
	})
}

// CreateSegment saves a new segment.
func (m *MemoryStore) CreateSegment(ctx context.Context, name string, filters map[string]any, color string) (segment.Segment, error) {
	var created segment.Segment
	err := m.mutate(ctx, func(ws *workspace.Workspace) error {
		return ws.WithSegments(func(reg *segment.Registry) error {
			s, err := reg.Create(name, filters, color)
			created = s
			return err
		})
	})
	return created, err
}

// DeleteSegment removes a segment.
func (m *MemoryStore) DeleteSegment(ctx context.Context, id string) error {
	if segment.IsReserved(id) {
		return fmt.Errorf("%w: %q", segment.ErrReservedSegment, id)
	}
	return m.mutate(ctx, func(ws *workspace.Workspace) error {
		return ws.WithSegments(func(reg *segment.Registry) error {
			return reg.Delete(id)
		})
	})
}

// SetActiveSegment selects the default segment.
func (m *MemoryStore) SetActiveSegment(ctx context.Context, id string) error {
	return m.mutate(ctx, func(ws *workspace.Workspace) error {
		return ws.WithSegments(func(reg *segment.Registry) error {
			return reg.SetActive(id)
		})
	})
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}

// mutate applies fn to a copy of the session and keeps the copy only when fn
// and the persist hook both succeed.
func (m *MemoryStore) mutate(ctx context.Context, fn func(*workspace.Workspace) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.refresh(); err != nil {
		return err
	}
	next := m.ws.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if m.persist != nil {
		if err := m.persist(next); err != nil {
			return err
		}
	}
	m.ws = next
	m.observe()
	return nil
}

// view runs fn against the current session without changing it.
func (m *MemoryStore) view(fn func(*workspace.Workspace) error) error {
	if m.reload == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return fn(m.ws)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refresh(); err != nil {
		return err
	}
	return fn(m.ws)
}

// refresh swaps in the backing copy when another writer changed it. Callers
// hold m.mu for writing.
func (m *MemoryStore) refresh() error {
	if m.reload == nil {
		return nil
	}
	ws, err := m.reload()
	if err != nil {
		return err
	}
	if ws != nil {
		m.ws = ws
		m.observe()
	}
	return nil
}

// seedTier sets the qualifying tier of a session that has not been saved
// yet. It does not persist.
func (m *MemoryStore) seedTier(t threshold.Tier) error {
	if t == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.ws.Config.Clone()
	cfg.QualifyingTier = t
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.ws.Config = cfg
	return nil
}

func (m *MemoryStore) observe() {
	telemetry.SessionLeads.Set(float64(len(m.ws.Leads)))
	telemetry.SessionSegments.Set(float64(len(m.ws.Segments)))
}
