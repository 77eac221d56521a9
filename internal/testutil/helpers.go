package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/api"
	"github.com/TimurManjosov/leadgrade/internal/catalog"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/store"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

// SampleLeads returns three leads covering each email class:
//
//	ana (corporate, Europe, Software)  scores 100 (excellent) with SampleRuleSet
//	bob (personal, Europe, Retail)     scores 50 (good)
//	cy  (disposable, APAC, Software)   scores 33.33 (fair)
func SampleLeads() []lead.Lead {
	return []lead.Lead{
		{ID: "ana", Email: "ana@bigco.com", Type: "customer", Region: "Europe", Industry: "Software", Employees: 250},
		{ID: "bob", Email: "bob@gmail.com", Type: "partner", Region: "Europe", Industry: "Retail", Employees: 40},
		{ID: "cy", Email: "cy@mailinator.com", Type: "customer", Region: "APAC", Industry: "Software", Employees: 5},
	}
}

// SampleRuleSet scores region Europe and the Software industry, 10 points
// each.
func SampleRuleSet(t *testing.T) rules.RuleSet {
	t.Helper()
	cat := catalog.Default()
	var rs rules.RuleSet
	add := func(id string, cond rules.Condition) {
		crit, err := cat.Lookup(id)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", id, err)
		}
		if err := rs.AddCriterion(crit, cond); err != nil {
			t.Fatalf("AddCriterion(%q): %v", id, err)
		}
	}
	add("region", rules.Condition{ID: "eu", Value: rules.ChoiceValue("Europe"), Weight: 10})
	add("industry", rules.Condition{ID: "sw", Value: rules.MultiChoiceValue{"Software"}, Weight: 10})
	return rs
}

// SampleWorkspace returns a percent-scale workspace holding SampleRuleSet and
// SampleLeads.
func SampleWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New(threshold.ScalePercent)
	ws.Config.RuleSet = SampleRuleSet(t)
	ws.Leads = SampleLeads()
	return ws
}

// NewTestStore creates an in-memory store seeded with SampleWorkspace.
func NewTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	return store.NewMemoryStore(SampleWorkspace(t), threshold.PolicyReject, zerolog.Nop())
}

// NewTestServer creates a test server around NewTestStore.
func NewTestServer(t *testing.T, opts ...api.Option) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := NewTestStore(t)
	server := api.NewServer(memStore, opts...)
	return server, memStore
}

// NewHTTPServer starts an httptest server for NewTestServer and closes it
// when the test ends.
func NewHTTPServer(t *testing.T, opts ...api.Option) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	server, memStore := NewTestServer(t, opts...)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedLeads upserts leads into the store.
func SeedLeads(ctx context.Context, st store.Store, leads []lead.Lead) error {
	for _, l := range leads {
		if _, err := st.UpsertLead(ctx, l); err != nil {
			return err
		}
	}
	return nil
}
