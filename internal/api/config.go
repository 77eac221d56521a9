package api

import (
	"net/http"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

// ConfigResponse is the body of GET /v1/config.
type ConfigResponse struct {
	Rules          []workspace.RuleDoc  `json:"rules"`
	Email          emaildomain.Config   `json:"email"`
	Thresholds     threshold.Thresholds `json:"thresholds"`
	QualifyingTier threshold.Tier       `json:"qualifyingTier"`
}

// handleCatalog handles GET /v1/catalog.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.store.Catalog(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, criteria)
}

// handleGetConfig handles GET /v1/config. It is read-only.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	cfg := snap.Config()
	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, ConfigResponse{
		Rules:          workspace.EncodeRules(cfg.RuleSet),
		Email:          cfg.Email,
		Thresholds:     cfg.Thresholds,
		QualifyingTier: cfg.QualifyingTier,
	})
}
