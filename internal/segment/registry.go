package segment

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry owns the saved segments and the active one. It is not safe for
// concurrent use; callers serialize access.
type Registry struct {
	segments []Segment
	active   string
}

// NewRegistry returns a registry holding the given segments in order.
func NewRegistry(initial ...Segment) (*Registry, error) {
	r := &Registry{}
	for _, s := range initial {
		if err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Create saves a new segment under a generated id.
func (r *Registry) Create(name string, filters map[string]any, color string) (Segment, error) {
	s := Segment{ID: uuid.NewString(), Name: name, Filters: filters, Color: color}
	if err := r.Add(s); err != nil {
		return Segment{}, err
	}
	return s.Clone(), nil
}

// Add saves s under its own id.
func (r *Registry) Add(s Segment) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if r.indexOf(s.ID) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateSegment, s.ID)
	}
	r.segments = append(r.segments, s.Clone())
	return nil
}

// Delete removes a segment. Deleting the active segment clears the active
// view.
func (r *Registry) Delete(id string) error {
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrSegmentNotFound, id)
	}
	r.segments = append(r.segments[:i:i], r.segments[i+1:]...)
	if r.active == id {
		r.active = ""
	}
	return nil
}

// Get returns a copy of the segment with the given id.
func (r *Registry) Get(id string) (Segment, error) {
	i := r.indexOf(id)
	if i < 0 {
		return Segment{}, fmt.Errorf("%w: %q", ErrSegmentNotFound, id)
	}
	return r.segments[i].Clone(), nil
}

// List returns copies of all segments in creation order.
func (r *Registry) List() []Segment {
	out := make([]Segment, len(r.segments))
	for i, s := range r.segments {
		out[i] = s.Clone()
	}
	return out
}

// SetActive selects the active segment. An empty id clears the selection.
func (r *Registry) SetActive(id string) error {
	if id != "" && r.indexOf(id) < 0 {
		return fmt.Errorf("%w: %q", ErrSegmentNotFound, id)
	}
	r.active = id
	return nil
}

// Active returns the active segment, if any.
func (r *Registry) Active() (Segment, bool) {
	if r.active == "" {
		return Segment{}, false
	}
	s, err := r.Get(r.active)
	return s, err == nil
}

// ActiveID returns the id of the active segment or "".
func (r *Registry) ActiveID() string { return r.active }

func (r *Registry) indexOf(id string) int {
	for i, s := range r.segments {
		if s.ID == id {
			return i
		}
	}
	return -1
}
