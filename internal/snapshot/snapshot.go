// Package snapshot evaluates a workspace into a read-only view: every lead
// scored, tiered and qualified against the current config, tagged with an
// ETag over the whole view. Views are rebuilt on every read; nothing derived
// is cached between mutations.
package snapshot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/evaluation"
	"github.com/TimurManjosov/leadgrade/internal/fingerprint"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/query"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/workspace"
)

// Snapshot is an evaluated workspace.
type Snapshot struct {
	ETag          string            `json:"etag"`
	Leads         []lead.Lead       `json:"leads"`
	Segments      []segment.Segment `json:"segments"`
	ActiveSegment string            `json:"activeSegment,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt"`

	ev *evaluation.Evaluator
	ws *workspace.Workspace
}

// Build evaluates every lead of ws. ws is cloned; later changes to it do not
// affect the snapshot.
func Build(ws *workspace.Workspace, logger zerolog.Logger) (*Snapshot, error) {
	own := ws.Clone()
	ev := evaluation.New(own.Config, evaluation.WithLogger(logger))
	s := &Snapshot{
		Leads:         ev.All(own.Leads),
		Segments:      own.Segments,
		ActiveSegment: own.ActiveSegment,
		UpdatedAt:     time.Now().UTC(),
		ev:            ev,
		ws:            own,
	}

	etag, err := fingerprint.Of(struct {
		Config   evaluation.Config `json:"config"`
		Leads    []lead.Lead       `json:"leads"`
		Segments []segment.Segment `json:"segments"`
		Active   string            `json:"active"`
	}{own.Config, s.Leads, s.Segments, s.ActiveSegment})
	if err != nil {
		return nil, err
	}
	s.ETag = etag
	return s, nil
}

// Config returns the config the snapshot was evaluated with.
func (s *Snapshot) Config() evaluation.Config {
	return s.ev.Config()
}

// Query runs opts over the evaluated leads. An empty SegmentID uses the
// active segment; query.All disables segment filtering.
func (s *Snapshot) Query(opts query.Options) ([]lead.Lead, error) {
	if opts.SegmentID == "" {
		opts.SegmentID = s.ActiveSegment
	}
	return query.Run(s.Leads, s.Segments, opts)
}

// Lead returns the evaluated lead with the given id.
func (s *Snapshot) Lead(id string) (lead.Lead, error) {
	for _, l := range s.Leads {
		if l.ID == id {
			return l.Clone(), nil
		}
	}
	return lead.Lead{}, fmt.Errorf("%w: %q", lead.ErrNotFound, id)
}

// Breakdown explains the score of one lead.
func (s *Snapshot) Breakdown(id string) (evaluation.Breakdown, error) {
	for _, l := range s.ws.Leads {
		if l.ID == id {
			return s.ev.Breakdown(l), nil
		}
	}
	return evaluation.Breakdown{}, fmt.Errorf("%w: %q", lead.ErrNotFound, id)
}

// Counts summarizes the evaluated population by tier and qualification.
type Counts struct {
	Total       int            `json:"total"`
	Qualified   int            `json:"qualified"`
	Unqualified int            `json:"unqualified"`
	ByTier      map[string]int `json:"byTier"`
	BySegment   map[string]int `json:"bySegment"`
}

// Counts tallies the snapshot.
func (s *Snapshot) Counts() Counts {
	c := Counts{
		Total:     len(s.Leads),
		ByTier:    make(map[string]int),
		BySegment: make(map[string]int, len(s.Segments)),
	}
	for _, l := range s.Leads {
		c.ByTier[string(l.Tier)]++
		if l.Qualified {
			c.Qualified++
		} else {
			c.Unqualified++
		}
	}
	for _, seg := range s.Segments {
		c.BySegment[seg.ID] = len(segment.Filter(s.Leads, seg))
	}
	return c
}
