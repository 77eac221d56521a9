package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/query"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

func newTestStore(t *testing.T, policy threshold.EditPolicy) *MemoryStore {
	t.Helper()
	return NewMemoryStore(workspace.New(threshold.ScalePercent), policy, zerolog.Nop())
}

// ----------------------------------------------------------------------------
// Leads
// ----------------------------------------------------------------------------

func TestMemoryStore_UpsertAndSnapshot(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	l, err := store.UpsertLead(ctx, lead.Lead{Email: "ana@bigco.com", Region: "Europe", Score: 99})
	if err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}
	if l.ID == "" {
		t.Fatal("Expected a generated id")
	}
	if l.Score != 0 {
		t.Error("Derived score on input should be ignored")
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Leads) != 1 || snap.Leads[0].Score != 100 {
		t.Errorf("Expected one lead scoring 100 on email alone, got %+v", snap.Leads)
	}
}

func TestMemoryStore_UpsertReplaces(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	if _, err := store.UpsertLead(ctx, lead.Lead{ID: "x", Email: "x@gmail.com"}); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}
	if _, err := store.UpsertLead(ctx, lead.Lead{ID: "x", Email: "x@bigco.com"}); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	if len(snap.Leads) != 1 || snap.Leads[0].Email != "x@bigco.com" {
		t.Errorf("Expected the replaced lead, got %+v", snap.Leads)
	}
}

func TestMemoryStore_MarkQualified(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()
	store.UpsertLead(ctx, lead.Lead{ID: "p", Email: "p@mailinator.com"})

	for i := 0; i < 2; i++ {
		if err := store.MarkQualified(ctx, "p"); err != nil {
			t.Fatalf("MarkQualified #%d failed: %v", i, err)
		}
	}

	snap, _ := store.Snapshot(ctx)
	got := snap.Leads[0]
	if !got.Qualified || !got.ManuallyQualified || got.Tier != threshold.TierFair {
		t.Errorf("Expected a qualified fair lead, got %+v", got)
	}

	if err := store.MarkQualified(ctx, "missing"); !errors.Is(err, lead.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Rules
// ----------------------------------------------------------------------------

func TestMemoryStore_AddAndRemoveCondition(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	first, err := store.AddCondition(ctx, "region", rules.Condition{Value: rules.ChoiceValue("Europe"), Weight: 8})
	if err != nil {
		t.Fatalf("AddCondition failed: %v", err)
	}
	if first.ID == "" || first.Combinator != rules.CombinatorNone {
		t.Errorf("Unexpected first condition %+v", first)
	}

	second, err := store.AddCondition(ctx, "region", rules.Condition{Value: rules.ChoiceValue("APAC"), Weight: 4})
	if err != nil {
		t.Fatalf("AddCondition failed: %v", err)
	}
	if second.Combinator != rules.CombinatorOr {
		t.Errorf("Expected default or combinator, got %q", second.Combinator)
	}

	removed, err := store.RemoveCondition(ctx, "region", first.ID)
	if err != nil || removed {
		t.Fatalf("RemoveCondition = %v, %v", removed, err)
	}
	removed, err = store.RemoveCondition(ctx, "region", second.ID)
	if err != nil || !removed {
		t.Fatalf("Removing the last condition should drop the criterion, got %v, %v", removed, err)
	}

	snap, _ := store.Snapshot(ctx)
	if snap.Config().RuleSet.Len() != 0 {
		t.Error("Expected an empty rule set")
	}
}

func TestMemoryStore_AddConditionRejectsUnknownAndMismatch(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	if _, err := store.AddCondition(ctx, "shoeSize", rules.Condition{Value: rules.TextValue("9"), Weight: 1}); !errors.Is(err, rules.ErrUnknownCriterion) {
		t.Errorf("Expected ErrUnknownCriterion, got %v", err)
	}
	if _, err := store.AddCondition(ctx, "employees", rules.Condition{Value: rules.ChoiceValue("many"), Weight: 1}); !errors.Is(err, rules.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch, got %v", err)
	}
}

func TestMemoryStore_SetRuleSetChecksCatalog(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	bogus := rules.Criterion{ID: "region", Label: "Region", Kind: rules.KindText}
	rs := rules.RuleSet{Criteria: []rules.CriterionRule{{
		Criterion:  bogus,
		Conditions: []rules.Condition{{ID: "c", Value: rules.TextValue("Europe"), Weight: 1}},
	}}}
	if err := store.SetRuleSet(ctx, rs); !errors.Is(err, rules.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Thresholds and email
// ----------------------------------------------------------------------------

func TestMemoryStore_EditThreshold_Reject(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	got, err := store.EditThreshold(ctx, threshold.FieldFairLeadMax, 80)
	if !errors.Is(err, threshold.ErrThresholdOrder) {
		t.Fatalf("Expected ErrThresholdOrder, got %v", err)
	}
	if got != 40 {
		t.Errorf("Expected prior value 40, got %v", got)
	}

	snap, _ := store.Snapshot(ctx)
	if snap.Config().Thresholds != threshold.Defaults(threshold.ScalePercent) {
		t.Errorf("Rejected edit changed thresholds: %+v", snap.Config().Thresholds)
	}
}

func TestMemoryStore_EditThreshold_Clamp(t *testing.T) {
	store := newTestStore(t, threshold.PolicyClamp)
	ctx := context.Background()

	got, err := store.EditThreshold(ctx, threshold.FieldFairLeadMax, 80)
	if err != nil {
		t.Fatalf("EditThreshold failed: %v", err)
	}
	if got != 69.99 {
		t.Errorf("Expected clamp to 69.99, got %v", got)
	}
}

func TestMemoryStore_SetEmailConfig(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()
	store.UpsertLead(ctx, lead.Lead{ID: "g", Email: "g@gmail.com"})

	if err := store.SetEmailConfig(ctx, emaildomain.Config{Corporate: "high", Personal: "bogus", Abusive: "low"}); !errors.Is(err, emaildomain.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := store.SetEmailConfig(ctx, emaildomain.Config{Corporate: "high", Personal: "high", Abusive: "low"}); err != nil {
		t.Fatalf("SetEmailConfig failed: %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	if snap.Leads[0].Score != 100 {
		t.Errorf("Expected personal=high to score 100, got %v", snap.Leads[0].Score)
	}
}

func TestMemoryStore_SetQualifyingTier(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	if err := store.SetQualifyingTier(ctx, threshold.TierPoor); err == nil {
		t.Error("Expected poor to be rejected on the percent scale")
	}
	if err := store.SetQualifyingTier(ctx, threshold.TierExcellent); err != nil {
		t.Fatalf("SetQualifyingTier failed: %v", err)
	}
}

// ----------------------------------------------------------------------------
// Segments
// ----------------------------------------------------------------------------

func TestMemoryStore_Segments(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()
	store.UpsertLead(ctx, lead.Lead{ID: "eu", Email: "a@bigco.com", Region: "Europe"})
	store.UpsertLead(ctx, lead.Lead{ID: "us", Email: "b@bigco.com", Region: "North America"})

	seg, err := store.CreateSegment(ctx, "Europe", map[string]any{"region": "Europe"}, "#1565c0")
	if err != nil {
		t.Fatalf("CreateSegment failed: %v", err)
	}
	if err := store.SetActiveSegment(ctx, seg.ID); err != nil {
		t.Fatalf("SetActiveSegment failed: %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	got, err := snap.Query(query.Options{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "eu" {
		t.Errorf("Expected only the Europe lead, got %+v", got)
	}

	if err := store.DeleteSegment(ctx, seg.ID); err != nil {
		t.Fatalf("DeleteSegment failed: %v", err)
	}
	snap, _ = store.Snapshot(ctx)
	if snap.ActiveSegment != "" {
		t.Error("Deleting the active segment should clear it")
	}
}

func TestMemoryStore_ReservedSegments(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx := context.Background()

	for _, id := range []string{segment.IDQualified, segment.IDUnqualified} {
		if err := store.DeleteSegment(ctx, id); !errors.Is(err, segment.ErrReservedSegment) {
			t.Errorf("DeleteSegment(%s) = %v, want ErrReservedSegment", id, err)
		}
	}
	if err := store.SetActiveSegment(ctx, "missing"); !errors.Is(err, segment.ErrSegmentNotFound) {
		t.Errorf("Expected ErrSegmentNotFound, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Concurrency and context
// ----------------------------------------------------------------------------

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore(t, threshold.PolicyClamp)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.UpsertLead(ctx, lead.Lead{Email: "c@bigco.com"})
		}()
		go func() {
			defer wg.Done()
			if _, err := store.Snapshot(ctx); err != nil {
				t.Errorf("Snapshot failed: %v", err)
			}
		}()
	}
	wg.Wait()

	snap, _ := store.Snapshot(ctx)
	if len(snap.Leads) != 20 {
		t.Errorf("Expected 20 leads, got %d", len(snap.Leads))
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := newTestStore(t, threshold.PolicyReject)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.UpsertLead(ctx, lead.Lead{Email: "a@b.co"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if _, err := store.Snapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
