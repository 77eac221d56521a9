package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

func TestFileStore_PersistsMutations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ws.yaml")

	fs, err := NewFileStore(ctx, path, threshold.ScalePercent, threshold.PolicyReject, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Opening a store should not create the file")
	}

	fs.UpsertLead(ctx, lead.Lead{ID: "a", Email: "a@bigco.com", Region: "Europe"})
	fs.AddCondition(ctx, "region", rules.Condition{ID: "eu", Value: rules.ChoiceValue("Europe"), Weight: 5})
	fs.MarkQualified(ctx, "a")
	if _, err := fs.EditThreshold(ctx, threshold.FieldGoodLead, 80); err != nil {
		t.Fatalf("EditThreshold failed: %v", err)
	}

	reopened, err := NewFileStore(ctx, path, threshold.ScalePercent, threshold.PolicyReject, zerolog.Nop())
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	snap, err := reopened.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Leads) != 1 || !snap.Leads[0].ManuallyQualified {
		t.Errorf("Lead not persisted: %+v", snap.Leads)
	}
	if snap.Config().RuleSet.Len() != 1 {
		t.Error("Rule set not persisted")
	}
	if snap.Config().Thresholds.GoodLead != 80 {
		t.Errorf("Threshold not persisted: %+v", snap.Config().Thresholds)
	}
}

func TestFileStore_FailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "ws")
	path := filepath.Join(dir, "ws.yaml")

	fs, err := NewFileStore(ctx, path, threshold.ScalePercent, threshold.PolicyReject, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	// a regular file where the directory should be makes every save fail
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.UpsertLead(ctx, lead.Lead{ID: "a", Email: "a@bigco.com"}); err == nil {
		t.Fatal("Expected the write to fail")
	}

	os.Remove(dir)
	snap, err := fs.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Leads) != 0 {
		t.Error("Failed write should leave the session unchanged")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.yaml")
	os.WriteFile(path, []byte("thresholds:\n  scale: percent\n  goodLead: 10\n  fairLeadMax: 50\n"), 0o644)

	_, err := NewFileStore(context.Background(), path, threshold.ScalePercent, threshold.PolicyReject, zerolog.Nop())
	if !errors.Is(err, threshold.ErrThresholdOrder) {
		t.Errorf("Expected ErrThresholdOrder, got %v", err)
	}
}

func TestFileStore_SharedFileKeepsBothWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ws.yaml")
	open := func() *FileStore {
		t.Helper()
		fs, err := NewFileStore(ctx, path, threshold.ScalePercent, threshold.PolicyReject, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		return fs
	}

	cli := open()
	if _, err := cli.UpsertLead(ctx, lead.Lead{ID: "a", Email: "a@bigco.com"}); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}
	server := open()

	if _, err := cli.EditThreshold(ctx, threshold.FieldGoodLead, 90); err != nil {
		t.Fatalf("EditThreshold failed: %v", err)
	}

	snap, err := server.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if got := snap.Config().Thresholds.GoodLead; got != 90 {
		t.Errorf("Second store should see the first store's edit, goodLead = %v", got)
	}

	if err := server.MarkQualified(ctx, "a"); err != nil {
		t.Fatalf("MarkQualified failed: %v", err)
	}

	snap, err = open().Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if got := snap.Config().Thresholds.GoodLead; got != 90 {
		t.Errorf("Threshold edit lost by a later writer, goodLead = %v", got)
	}
	if len(snap.Leads) != 1 || !snap.Leads[0].ManuallyQualified {
		t.Errorf("Qualification lost: %+v", snap.Leads)
	}

	// the first store picks up the second store's write before its next edit
	if _, err := cli.EditThreshold(ctx, threshold.FieldFairLeadMax, 30); err != nil {
		t.Fatalf("EditThreshold failed: %v", err)
	}
	snap, _ = open().Snapshot(ctx)
	if !snap.Leads[0].ManuallyQualified || snap.Config().Thresholds.FairLeadMax != 30 {
		t.Errorf("Reloaded session = %+v, thresholds %+v", snap.Leads, snap.Config().Thresholds)
	}
}

func TestFileStore_ReloadRejectsCorruptEdit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ws.yaml")
	fs, err := NewFileStore(ctx, path, threshold.ScalePercent, threshold.PolicyReject, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if _, err := fs.UpsertLead(ctx, lead.Lead{ID: "a", Email: "a@bigco.com"}); err != nil {
		t.Fatalf("UpsertLead failed: %v", err)
	}

	os.WriteFile(path, []byte("thresholds:\n  scale: percent\n  goodLead: 10\n  fairLeadMax: 50\n"), 0o644)
	if _, err := fs.Snapshot(ctx); !errors.Is(err, threshold.ErrThresholdOrder) {
		t.Errorf("Expected ErrThresholdOrder, got %v", err)
	}
	if err := fs.MarkQualified(ctx, "a"); !errors.Is(err, threshold.ErrThresholdOrder) {
		t.Errorf("Mutation over a corrupt file should fail, got %v", err)
	}
}
