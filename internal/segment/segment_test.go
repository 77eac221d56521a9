package segment

import (
	"errors"
	"testing"

	"github.com/TimurManjosov/leadgrade/internal/lead"
)

func sampleLeads() []lead.Lead {
	return []lead.Lead{
		{ID: "1", Email: "a@bigco.com", Region: "Europe", Industry: "Software", Qualified: true, Employees: 300},
		{ID: "2", Email: "b@gmail.com", Region: "APAC", Industry: "Retail"},
		{ID: "3", Email: "c@acme.io", Region: "Europe", Industry: "Retail", Qualified: true},
		{},
	}
}

func TestMatches_EmptyFilterMatchesEveryLead(t *testing.T) {
	for _, s := range []Segment{{ID: "all", Name: "All"}, {ID: "all", Name: "All", Filters: map[string]any{}}} {
		for _, l := range sampleLeads() {
			l := l
			if !Matches(&l, s) {
				t.Errorf("empty segment should match lead %+v", l)
			}
		}
	}
}

func TestMatches(t *testing.T) {
	leads := sampleLeads()
	tests := []struct {
		name    string
		filters map[string]any
		want    []string
	}{
		{"single key", map[string]any{"region": "Europe"}, []string{"1", "3"}},
		{"and across keys", map[string]any{"region": "Europe", "industry": "Retail"}, []string{"3"}},
		{"strict case", map[string]any{"region": "europe"}, nil},
		{"qualified true", map[string]any{"qualified": true}, []string{"1", "3"}},
		{"qualified false", map[string]any{"qualified": false}, []string{"2", ""}},
		{"numeric across types", map[string]any{"employees": 300}, []string{"1"}},
		{"bool vs string never equal", map[string]any{"qualified": "true"}, nil},
		{"unknown field", map[string]any{"favouriteColor": "blue"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(leads, Segment{ID: "s", Name: "s", Filters: tt.filters})
			if len(got) != len(tt.want) {
				t.Fatalf("matched %d leads, want %d (%v)", len(got), len(tt.want), tt.want)
			}
			for i, l := range got {
				if l.ID != tt.want[i] {
					t.Errorf("match[%d] = %q, want %q", i, l.ID, tt.want[i])
				}
			}
		})
	}
}

func TestCompile_Rule(t *testing.T) {
	p, err := Compile(Segment{ID: "s", Name: "s", Filters: map[string]any{"region": "Europe", "employees": 300}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := `{"and":[{"===":[{"var":"f0"},300]},{"===":[{"var":"f1"},"Europe"]}]}`
	if p.Rule() != want {
		t.Errorf("Rule() = %s, want %s", p.Rule(), want)
	}

	if _, err := Compile(Segment{ID: "bad", Name: "bad", Filters: map[string]any{"region": []string{"Europe"}}}); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("Compile with list filter error = %v", err)
	}
}

func TestPredicate_Match(t *testing.T) {
	l := lead.Lead{
		ID:         "1",
		Region:     "Europe",
		Employees:  300,
		Attributes: map[string]any{"plan.tier": "gold", "seats": "12"},
	}
	tests := []struct {
		name    string
		filters map[string]any
		want    bool
	}{
		{"float filter on int field", map[string]any{"employees": 300.0}, true},
		{"dotted attribute key", map[string]any{"plan.tier": "gold"}, true},
		{"numeric string is not a number", map[string]any{"seats": 12}, false},
		{"one miss fails the conjunction", map[string]any{"region": "Europe", "employees": 301}, false},
		{"all keys equal", map[string]any{"region": "Europe", "plan.tier": "gold", "qualified": false}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(Segment{ID: "s", Name: "s", Filters: tt.filters})
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if got := p.Match(&l); got != tt.want {
				t.Errorf("Match() = %v, want %v (rule %s)", got, tt.want, p.Rule())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry_DeleteActiveResetsView(t *testing.T) {
	r, err := NewRegistry(DefaultSegments()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	s, err := r.Create("EU software", map[string]any{"region": "Europe", "industry": "Software"}, "#1565c0")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected generated id")
	}
	if err := r.SetActive(s.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if active, ok := r.Active(); !ok || active.ID != s.ID {
		t.Fatalf("Active() = %+v, %v", active, ok)
	}

	if err := r.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := r.Active(); ok || r.ActiveID() != "" {
		t.Error("deleting the active segment should clear the active view")
	}
	if len(r.List()) != 2 {
		t.Errorf("List() len = %d, want 2", len(r.List()))
	}
}

func TestRegistry_Errors(t *testing.T) {
	r, _ := NewRegistry(DefaultSegments()...)

	if err := r.Delete("nope"); !errors.Is(err, ErrSegmentNotFound) {
		t.Errorf("Delete error = %v", err)
	}
	if _, err := r.Get("nope"); !errors.Is(err, ErrSegmentNotFound) {
		t.Errorf("Get error = %v", err)
	}
	if err := r.SetActive("nope"); !errors.Is(err, ErrSegmentNotFound) {
		t.Errorf("SetActive error = %v", err)
	}
	if err := r.Add(DefaultSegments()[0]); !errors.Is(err, ErrDuplicateSegment) {
		t.Errorf("Add duplicate error = %v", err)
	}
	if _, err := r.Create("", nil, ""); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("Create without name error = %v", err)
	}
	if _, err := r.Create("bad", map[string]any{"region": []string{"Europe"}}, ""); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("Create with list filter error = %v", err)
	}
	if _, err := r.Create("none", map[string]any{"employees": 0}, ""); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("Create with a zero employees filter error = %v", err)
	}
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r, _ := NewRegistry(DefaultSegments()...)
	s, _ := r.Get(IDQualified)
	s.Filters["qualified"] = false

	again, _ := r.Get(IDQualified)
	if again.Filters["qualified"] != true {
		t.Error("Get leaked internal filter map")
	}
	if !IsReserved(IDQualified) || IsReserved("custom") {
		t.Error("IsReserved mismatch")
	}
}
