package api

import (
	"net/http"

	"github.com/TimurManjosov/leadgrade/internal/segment"
)

// SegmentsResponse is the body of GET /v1/segments.
type SegmentsResponse struct {
	Segments []segment.Segment `json:"segments"`
	Active   string            `json:"active,omitempty"`
	Counts   map[string]int    `json:"counts"`
}

// handleListSegments handles GET /v1/segments with the number of evaluated
// leads in each segment.
func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		StoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SegmentsResponse{
		Segments: snap.Segments,
		Active:   snap.ActiveSegment,
		Counts:   snap.Counts().BySegment,
	})
}
