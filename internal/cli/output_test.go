package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

var sampleLeads = []lead.Lead{
	{ID: "l1", Email: "ana@bigco.com", Region: "Europe", Score: 72.22, Tier: threshold.TierExcellent, Qualified: true},
	{ID: "l2", Email: "bob@gmail.com", Score: 10, Tier: threshold.TierFair, ManuallyQualified: true, Qualified: true},
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"table", "JSON", "yaml"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", in, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for xml")
	}
}

func TestPrinter_LeadsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := (Printer{W: &buf, Format: FormatTable}).Leads(sampleLeads); err != nil {
		t.Fatalf("Leads failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ana@bigco.com", "72.22", "Excellent", "yes (manual)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter_LeadsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (Printer{W: &buf, Format: FormatJSON}).Leads(sampleLeads); err != nil {
		t.Fatalf("Leads failed: %v", err)
	}
	var got struct {
		Leads []lead.Lead `json:"leads"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if len(got.Leads) != 2 || got.Leads[0].Score != 72.22 {
		t.Errorf("Unexpected leads: %+v", got.Leads)
	}
}

func TestPrinter_LeadsYAMLKeepsDerivedFields(t *testing.T) {
	var buf bytes.Buffer
	if err := (Printer{W: &buf, Format: FormatYAML}).Leads(sampleLeads); err != nil {
		t.Fatalf("Leads failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "score: 72.22") || !strings.Contains(out, "tier: excellent") {
		t.Errorf("YAML output lost derived fields:\n%s", out)
	}
}

func TestPrinter_Rules(t *testing.T) {
	rs := rules.RuleSet{Criteria: []rules.CriterionRule{{
		Criterion: rules.Criterion{ID: "employees", Kind: rules.KindRange},
		Conditions: []rules.Condition{
			{ID: "big", Value: rules.RangeValue{Op: rules.RangeGreaterThan, Min: 500}, Weight: 6},
			{ID: "mid", Value: rules.RangeValue{Op: rules.RangeBetween, Min: 50, Max: 500}, Weight: 3, Combinator: rules.CombinatorOr},
		},
	}}}

	var buf bytes.Buffer
	if err := (Printer{W: &buf, Format: FormatTable}).Rules(rs); err != nil {
		t.Fatalf("Rules failed: %v", err)
	}
	if !strings.Contains(buf.String(), "> 500") || !strings.Contains(buf.String(), "50 .. 500") {
		t.Errorf("Unexpected rules table:\n%s", buf.String())
	}

	buf.Reset()
	if err := (Printer{W: &buf, Format: FormatJSON}).Rules(rs); err != nil {
		t.Fatalf("Rules failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"op": "greater_than"`) {
		t.Errorf("Unexpected rules JSON:\n%s", buf.String())
	}
}

func TestPrinter_SegmentsMarksActive(t *testing.T) {
	var buf bytes.Buffer
	segs := segment.DefaultSegments()
	counts := map[string]int{segment.IDQualified: 2}
	if err := (Printer{W: &buf, Format: FormatTable}).Segments(segs, segment.IDQualified, counts); err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if !strings.Contains(buf.String(), "*") || !strings.Contains(buf.String(), "qualified=true") {
		t.Errorf("Unexpected segments table:\n%s", buf.String())
	}
}

func TestPrinter_ThresholdsPercentHidesRawFields(t *testing.T) {
	var buf bytes.Buffer
	if err := (Printer{W: &buf, Format: FormatTable}).Thresholds(threshold.Defaults(threshold.ScalePercent), threshold.TierGood); err != nil {
		t.Fatalf("Thresholds failed: %v", err)
	}
	if strings.Contains(buf.String(), "poorLead") {
		t.Errorf("Percent scale should not show poorLead:\n%s", buf.String())
	}
}

func TestPrinter_UnsupportedFormat(t *testing.T) {
	if err := (Printer{W: &bytes.Buffer{}, Format: "xml"}).Leads(nil); err == nil {
		t.Fatal("Expected error for unsupported format")
	}
}
