package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TimurManjosov/leadgrade/internal/api"
	"github.com/TimurManjosov/leadgrade/internal/query"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/testutil"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ts, _ := testutil.NewHTTPServer(t)
	return NewClient(ts.URL)
}

func TestClient_ListLeads(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	resp, err := c.ListLeads(ctx, query.Options{Qualified: query.QualifiedOnly}, "")
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if resp.Count != 2 || resp.Total != 3 {
		t.Errorf("Expected 2 of 3 leads, got %d of %d", resp.Count, resp.Total)
	}
	if resp.Leads[0].ID != "ana" {
		t.Errorf("Expected ana first, got %s", resp.Leads[0].ID)
	}

	_, err = c.ListLeads(ctx, query.Options{}, resp.ETag)
	if !errors.Is(err, ErrNotModified) {
		t.Errorf("Expected ErrNotModified for a current ETag, got %v", err)
	}
}

func TestClient_ListLeads_InvalidSort(t *testing.T) {
	c := newTestClient(t)

	_, err := c.ListLeads(context.Background(), query.Options{SortField: "shoeSize"}, "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != api.ErrCodeInvalidQuery {
		t.Errorf("Unexpected error %+v", apiErr)
	}
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t)

	resp, err := c.Search(context.Background(), query.Options{Search: "software", SortField: "email", SortDirection: query.Asc})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(resp.Leads) != 2 || resp.Leads[0].ID != "ana" || resp.Leads[1].ID != "cy" {
		t.Errorf("Expected [ana cy], got %+v", resp.Leads)
	}
}

func TestClient_GetBreakdown(t *testing.T) {
	c := newTestClient(t)

	b, err := c.GetBreakdown(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetBreakdown failed: %v", err)
	}
	if b.Lead.ID != "bob" || b.Result.Score != 50 {
		t.Errorf("Expected bob scoring 50, got %s %v", b.Lead.ID, b.Result.Score)
	}
	if len(b.Result.Contributions) != 2 {
		t.Errorf("Expected 2 contributions, got %d", len(b.Result.Contributions))
	}

	_, err = c.GetBreakdown(context.Background(), "nobody")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected 404 APIError, got %v", err)
	}
}

func TestClient_Qualify(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	l, err := c.Qualify(ctx, "cy")
	if err != nil {
		t.Fatalf("Qualify failed: %v", err)
	}
	if !l.Qualified || l.Tier != threshold.TierFair {
		t.Errorf("Expected cy qualified at tier fair, got %+v", l)
	}

	counts, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if counts.Qualified != 3 {
		t.Errorf("Expected 3 qualified after override, got %d", counts.Qualified)
	}
}

func TestClient_SegmentsCatalogConfig(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	segs, err := c.ListSegments(ctx)
	if err != nil {
		t.Fatalf("ListSegments failed: %v", err)
	}
	if len(segs.Segments) != 2 || segs.Counts[segment.IDQualified] != 2 {
		t.Errorf("Unexpected segments %+v", segs)
	}

	criteria, err := c.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(criteria) == 0 {
		t.Error("Expected a non-empty catalog")
	}

	cfg, err := c.Config(ctx)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if len(cfg.Rules) != 2 || cfg.Thresholds.GoodLead != 70 {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).Summary(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Code != "" {
		t.Errorf("Unexpected error %+v", apiErr)
	}
}
