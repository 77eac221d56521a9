// Package workspace reads and writes the YAML file that holds a session:
// rule set, email tiers, thresholds, segments and leads. Everything read is
// re-validated; nothing in the file is trusted.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/leadgrade/internal/catalog"
	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/evaluation"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/segment"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// Sentinel errors returned by Decode.
var (
	ErrInvalidWorkspace = errors.New("invalid workspace")
	ErrDuplicateLead    = errors.New("duplicate lead id")
)

// Document is the on-disk shape of a workspace.
type Document struct {
	Email          emaildomain.Config    `yaml:"email"`
	Thresholds     *threshold.Thresholds `yaml:"thresholds,omitempty"`
	QualifyingTier threshold.Tier        `yaml:"qualifyingTier,omitempty"`
	Catalog        []rules.Criterion     `yaml:"catalog,omitempty"`
	Rules          []RuleDoc             `yaml:"rules,omitempty"`
	Segments       []segment.Segment     `yaml:"segments,omitempty"`
	ActiveSegment  string                `yaml:"activeSegment,omitempty"`
	Leads          []lead.Lead           `yaml:"leads,omitempty"`
}

// RuleDoc is one criterion of the rule set, referenced by catalog id.
type RuleDoc struct {
	Criterion  string         `json:"criterion" yaml:"criterion"`
	Conditions []ConditionDoc `json:"conditions" yaml:"conditions"`
}

// ConditionDoc holds a loosely typed value decoded against the criterion kind.
type ConditionDoc struct {
	ID         string           `json:"id,omitempty" yaml:"id,omitempty"`
	Value      any              `json:"value" yaml:"value"`
	Weight     int              `json:"weight" yaml:"weight"`
	Combinator rules.Combinator `json:"combinator,omitempty" yaml:"combinator,omitempty"`
}

// Workspace is a validated session.
type Workspace struct {
	Catalog       *catalog.Catalog
	Extra         []rules.Criterion
	Config        evaluation.Config
	Segments      []segment.Segment
	ActiveSegment string
	Leads         []lead.Lead
}

// New returns an empty workspace on the given scale with the default
// segments.
func New(scale threshold.Scale) *Workspace {
	return &Workspace{
		Catalog:  catalog.Default(),
		Config:   evaluation.DefaultConfig(scale),
		Segments: segment.DefaultSegments(),
	}
}

// Clone returns a deep copy of w.
func (w *Workspace) Clone() *Workspace {
	out := &Workspace{
		Catalog:       w.Catalog,
		Extra:         append([]rules.Criterion(nil), w.Extra...),
		Config:        w.Config.Clone(),
		ActiveSegment: w.ActiveSegment,
		Segments:      make([]segment.Segment, len(w.Segments)),
		Leads:         make([]lead.Lead, len(w.Leads)),
	}
	for i, s := range w.Segments {
		out.Segments[i] = s.Clone()
	}
	for i, l := range w.Leads {
		out.Leads[i] = l.Clone()
	}
	return out
}

// WithSegments runs fn over a registry holding w's segments and writes the
// registry back when fn succeeds.
func (w *Workspace) WithSegments(fn func(*segment.Registry) error) error {
	reg, err := segment.NewRegistry(w.Segments...)
	if err != nil {
		return err
	}
	if err := reg.SetActive(w.ActiveSegment); err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	w.Segments = reg.List()
	w.ActiveSegment = reg.ActiveID()
	return nil
}

// Save writes w to path, creating the directory if needed.
func Save(path string, w *Workspace) error {
	data, err := Encode(w)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile replaces path with data through a temporary file, so readers see
// either the old or the new document.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create workspace directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write workspace file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace workspace file: %w", err)
	}
	return nil
}

// Decode parses and validates a workspace document.
//
// Conditions whose value does not fit their criterion kind are dropped with
// a warning, and a criterion left without conditions is removed. Any other
// problem (bad weights, duplicate criteria, unknown criteria, out-of-order
// thresholds, unknown tiers, duplicate segments or leads) fails the load.
func Decode(data []byte, scale threshold.Scale, logger zerolog.Logger) (*Workspace, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
	}

	cat, err := catalog.Default().Extend(doc.Catalog...)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog: %w", ErrInvalidWorkspace, err)
	}

	ws := &Workspace{
		Catalog:       cat,
		Extra:         doc.Catalog,
		Config:        evaluation.DefaultConfig(scale),
		ActiveSegment: doc.ActiveSegment,
	}

	if doc.Email != (emaildomain.Config{}) {
		ws.Config.Email = doc.Email
	}
	if doc.Thresholds != nil {
		th := *doc.Thresholds
		if th.Scale == "" {
			th.Scale = scale
		}
		if th.Scale != scale {
			return nil, fmt.Errorf("%w: thresholds are on scale %q, session uses %q", ErrInvalidWorkspace, th.Scale, scale)
		}
		ws.Config.Thresholds = th
	}
	if doc.QualifyingTier != "" {
		tier, err := threshold.ParseTier(string(doc.QualifyingTier))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
		}
		ws.Config.QualifyingTier = tier
	}

	rs, err := decodeRules(doc.Rules, cat, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
	}
	ws.Config.RuleSet = rs

	if err := ws.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
	}

	if err := ws.decodeSegments(doc.Segments, logger); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
	}
	if err := ws.decodeLeads(doc.Leads); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkspace, err)
	}
	return ws, nil
}

func decodeRules(docs []RuleDoc, cat *catalog.Catalog, logger zerolog.Logger) (rules.RuleSet, error) {
	var rs rules.RuleSet
	for _, rd := range docs {
		crit, err := cat.Lookup(rd.Criterion)
		if err != nil {
			return rules.RuleSet{}, fmt.Errorf("%w: %w", rules.ErrUnknownCriterion, err)
		}

		started := false
		for i, cd := range rd.Conditions {
			value, err := rules.DecodeValue(crit.Kind, cd.Value)
			if err == nil {
				err = rules.CheckValue(crit, value)
			}
			if errors.Is(err, rules.ErrSchemaMismatch) {
				logger.Warn().
					Str("criterion", crit.ID).
					Str("condition", cd.ID).
					Int("index", i).
					Msg("dropping condition: " + err.Error())
				continue
			}
			if err != nil {
				return rules.RuleSet{}, err
			}

			cond := rules.Condition{ID: cd.ID, Value: value, Weight: cd.Weight, Combinator: cd.Combinator}
			if !started {
				if err := rs.AddCriterion(crit, cond); err != nil {
					return rules.RuleSet{}, err
				}
				started = true
				continue
			}
			if _, err := rs.AddCondition(crit.ID, cond); err != nil {
				return rules.RuleSet{}, err
			}
		}
		if !started {
			if len(rd.Conditions) == 0 {
				return rules.RuleSet{}, fmt.Errorf("%w: %q", rules.ErrEmptyCriterion, crit.ID)
			}
			logger.Warn().Str("criterion", crit.ID).Msg("removing criterion left without conditions")
		}
	}
	return rs, nil
}

func (w *Workspace) decodeSegments(docs []segment.Segment, logger zerolog.Logger) error {
	segs := docs
	for _, def := range segment.DefaultSegments() {
		if !hasSegment(segs, def.ID) {
			segs = append(segs, def)
		}
	}
	reg, err := segment.NewRegistry(segs...)
	if err != nil {
		return err
	}
	if err := reg.SetActive(w.ActiveSegment); err != nil {
		logger.Warn().Str("segment", w.ActiveSegment).Msg("active segment not found, clearing")
		w.ActiveSegment = ""
	}
	w.Segments = reg.List()
	return nil
}

func hasSegment(segs []segment.Segment, id string) bool {
	for _, s := range segs {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (w *Workspace) decodeLeads(docs []lead.Lead) error {
	seen := make(map[string]struct{}, len(docs))
	w.Leads = make([]lead.Lead, 0, len(docs))
	for _, l := range docs {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateLead, l.ID)
		}
		seen[l.ID] = struct{}{}
		// derived fields are never read from disk
		l.EmailDomainClass, l.Score, l.Tier = "", 0, ""
		l.Qualified = l.ManuallyQualified
		w.Leads = append(w.Leads, l)
	}
	return nil
}

// Encode renders w as a YAML document.
func Encode(w *Workspace) ([]byte, error) {
	th := w.Config.Thresholds
	doc := Document{
		Email:          w.Config.Email,
		Thresholds:     &th,
		QualifyingTier: w.Config.QualifyingTier,
		Catalog:        w.Extra,
		Segments:       w.Segments,
		ActiveSegment:  w.ActiveSegment,
		Leads:          w.Leads,
	}
	doc.Rules = EncodeRules(w.Config.RuleSet)

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workspace: %w", err)
	}
	return data, nil
}

// EncodeRules converts a rule set to its document form. Values become plain
// strings, string lists and {op, min, max} maps.
func EncodeRules(rs rules.RuleSet) []RuleDoc {
	out := make([]RuleDoc, 0, len(rs.Criteria))
	for _, cr := range rs.Criteria {
		rd := RuleDoc{Criterion: cr.Criterion.ID}
		for _, c := range cr.Conditions {
			rd.Conditions = append(rd.Conditions, ConditionDoc{
				ID:         c.ID,
				Value:      rules.EncodeValue(c.Value),
				Weight:     c.Weight,
				Combinator: c.Combinator,
			})
		}
		out = append(out, rd)
	}
	return out
}
