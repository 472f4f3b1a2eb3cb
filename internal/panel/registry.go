package panel

import (
	"fmt"
	"strings"
	"time"
)

// Registry is the immutable set of known panels, in tab order.
type Registry struct {
	order []string
	byID  map[string]Config
}

// NewRegistry validates cfgs and builds a registry. Panel IDs must be
// unique and every panel must have a positive interval.
func NewRegistry(cfgs ...Config) (*Registry, error) {
	r := &Registry{byID: make(map[string]Config, len(cfgs))}
	for _, c := range cfgs {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate panel %q", c.ID)
		}
		c.Columns = append([]Column(nil), c.Columns...)
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r, nil
}

// DefaultRegistry returns a registry of the standard panels.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Defaults()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the panel with the given ID.
func (r *Registry) Get(id string) (Config, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Has reports whether id names a known panel.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// IDs returns the panel IDs in tab order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of panels.
func (r *Registry) Len() int {
	return len(r.order)
}

// Interval returns the refresh interval for id, or zero if unknown.
func (r *Registry) Interval(id string) time.Duration {
	if c, ok := r.byID[id]; ok {
		return c.RefreshInterval
	}
	return 0
}

// OwnerOf returns the panel that owns the given action.
func (r *Registry) OwnerOf(actionID string) (Config, bool) {
	for _, id := range r.order {
		c := r.byID[id]
		if c.Action != nil && c.Action.ID == actionID {
			return c, true
		}
	}
	return Config{}, false
}

// WithPresentation returns a copy of the registry whose titles and
// columns are replaced by those in overrides. IDs, resources, intervals
// and actions are kept, so the panel set stays the same.
func (r *Registry) WithPresentation(overrides map[string]Presentation) *Registry {
	out := &Registry{order: r.IDs(), byID: make(map[string]Config, len(r.byID))}
	for id, c := range r.byID {
		if p, ok := overrides[id]; ok {
			if strings.TrimSpace(p.Title) != "" {
				c.Title = p.Title
			}
			if len(p.Columns) > 0 {
				c.Columns = append([]Column(nil), p.Columns...)
			}
		}
		out.byID[id] = c
	}
	return out
}

// Presentation is the part of a panel that may change at runtime.
type Presentation struct {
	Title   string
	Columns []Column
}
