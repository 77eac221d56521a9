package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TimurManjosov/leadgrade/internal/fingerprint"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/query"
	"github.com/TimurManjosov/leadgrade/internal/validation"
)

// LeadsResponse is the body of GET /v1/leads.
type LeadsResponse struct {
	Leads []lead.Lead `json:"leads"`
	Count int         `json:"count"`
	Total int         `json:"total"`
	ETag  string      `json:"etag"`
}

// queryOptions reads list parameters. Unknown values are left for
// query.Run to reject.
func queryOptions(r *http.Request) query.Options {
	q := r.URL.Query()
	return query.Options{
		SegmentID:     q.Get("segment"),
		Search:        q.Get("search"),
		Type:          q.Get("type"),
		Tier:          q.Get("tier"),
		Qualified:     strings.ToLower(q.Get("qualified")),
		SortField:     q.Get("sort"),
		SortDirection: query.Direction(q.Get("dir")),
	}
}

// handleListLeads handles GET /v1/leads.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	s.respondWithLeads(w, r, queryOptions(r))
}

// handleSearchLeads handles POST /v1/leads/search with query.Options as the
// body.
func (s *Server) handleSearchLeads(w http.ResponseWriter, r *http.Request) {
	var opts query.Options
	if !decodeJSON(w, r, &opts) {
		return
	}
	s.respondWithLeads(w, r, opts)
}

// respondWithLeads runs a query against a fresh snapshot.
// The ETag covers the whole evaluated session, so any edit that could change
// a score, tier or segment membership produces a new tag. Only GET honours
// If-None-Match: a search body is not part of the tag.
func (s *Server) respondWithLeads(w http.ResponseWriter, r *http.Request, opts query.Options) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	if r.Method == http.MethodGet && fingerprint.Matches(r.Header.Get("If-None-Match"), snap.ETag) {
		w.Header().Set("ETag", snap.ETag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	leads, err := snap.Query(opts)
	if err != nil {
		StoreError(w, r, err)
		return
	}

	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, LeadsResponse{
		Leads: leads,
		Count: len(leads),
		Total: len(snap.Leads),
		ETag:  snap.ETag,
	})
}

// handleGetLead handles GET /v1/leads/{id} with the score breakdown.
func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	b, err := snap.Breakdown(id)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleQualifyLead handles POST /v1/leads/{id}/qualify.
func (s *Server) handleQualifyLead(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	if err := s.store.MarkQualified(r.Context(), id); err != nil {
		StoreError(w, r, err)
		return
	}
	s.respondWithLead(w, r, id, http.StatusOK)
}

// handleSummary handles GET /v1/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Counts())
}

// respondWithLead writes the freshly evaluated lead.
func (s *Server) respondWithLead(w http.ResponseWriter, r *http.Request, id string, code int) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	l, err := snap.Lead(id)
	if err != nil {
		StoreError(w, r, err)
		return
	}
	writeJSON(w, code, l)
}

// leadID reads the {id} path parameter and rejects oversized ids.
func leadID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if v := validation.ValidateID(id); !v.Valid {
		ValidationError(w, r, "Invalid lead id", v.Errors)
		return "", false
	}
	return id, true
}
