package scenario

import (
	"sort"
	"strconv"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
)

// Effect is the net perturbation of a continuous field on one day
type Effect struct {
	Add float64
	Mul float64
}

// Identity is the effect of an empty calendar
func Identity() Effect {
	return Effect{Add: 0, Mul: 1}
}

// Apply perturbs a baseline draw: (v + Add) × Mul
func (e Effect) Apply(v float64) float64 {
	return (v + e.Add) * e.Mul
}

// IsIdentity reports whether the effect leaves values unchanged
func (e Effect) IsIdentity() bool {
	return e.Add == 0 && e.Mul == 1
}

// Registry is an immutable scenario calendar. A nil *Registry behaves as an
// empty calendar.
type Registry struct {
	scenarios []Scenario
	byTarget  map[string][]Window
}

// NewRegistry validates every window and rejects windows on the same
// (category, field, level) whose dates and scopes intersect.
func NewRegistry(scenarios ...Scenario) (*Registry, error) {
	r := &Registry{
		scenarios: make([]Scenario, 0, len(scenarios)),
		byTarget:  make(map[string][]Window),
	}
	ids := make(map[string]bool)
	for _, s := range scenarios {
		if s.ID == "" {
			return nil, shared.NewConfigurationError("scenario requires an id")
		}
		if ids[s.ID] {
			return nil, shared.NewConfigurationError("duplicate scenario id %q", s.ID)
		}
		ids[s.ID] = true

		windows := make([]Window, len(s.Windows))
		for i, w := range s.Windows {
			if w.ID == "" {
				w.ID = s.ID + "#" + strconv.Itoa(i+1)
			}
			w.StartDate = apr.Day(w.StartDate)
			w.EndDate = apr.Day(w.EndDate)
			if err := w.Validate(); err != nil {
				return nil, err
			}
			for _, other := range r.byTarget[w.target()] {
				if w.overlaps(other) {
					return nil, shared.NewConfigurationError("window %s overlaps %s on %s/%s", w.ID, other.ID, w.Category, w.Field)
				}
			}
			r.byTarget[w.target()] = append(r.byTarget[w.target()], w)
			windows[i] = w
		}
		s.Windows = windows
		r.scenarios = append(r.scenarios, s)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static calendars
func MustRegistry(scenarios ...Scenario) *Registry {
	r, err := NewRegistry(scenarios...)
	if err != nil {
		panic(err)
	}
	return r
}

// Net composes every active continuous window on the field: additive
// offsets are summed and multiplicative factors multiplied.
func (r *Registry) Net(category apr.Category, field, scope string, date time.Time) Effect {
	e := Identity()
	if r == nil {
		return e
	}
	for _, w := range r.byTarget[string(category)+"/"+field+"/"] {
		if !w.Active(date) || !w.Covers(scope) {
			continue
		}
		if w.Mode == ModeMultiplicative {
			e.Mul *= w.Contribution(date)
		} else {
			e.Add += w.Contribution(date)
		}
	}
	return e
}

// Weight returns the factor applied to one level of a categorical field
func (r *Registry) Weight(category apr.Category, field, level, scope string, date time.Time) float64 {
	if r == nil {
		return 1
	}
	factor := 1.0
	for _, w := range r.byTarget[string(category)+"/"+field+"/"+level] {
		if w.Active(date) && w.Covers(scope) {
			factor *= w.Contribution(date)
		}
	}
	return factor
}

// Reweight applies the active level factors to a distribution
func (r *Registry) Reweight(category apr.Category, field, scope string, date time.Time, levels []apr.WeightedLevel) []apr.WeightedLevel {
	out := make([]apr.WeightedLevel, len(levels))
	for i, l := range levels {
		out[i] = apr.WeightedLevel{Value: l.Value, Weight: l.Weight * r.Weight(category, field, l.Value, scope, date)}
	}
	return out
}

// Scenarios returns the registered scenarios in registration order
func (r *Registry) Scenarios() []Scenario {
	if r == nil {
		return nil
	}
	out := make([]Scenario, len(r.scenarios))
	copy(out, r.scenarios)
	return out
}

// Windows returns every window sorted by start date then id
func (r *Registry) Windows() []Window {
	if r == nil {
		return nil
	}
	var out []Window
	for _, s := range r.scenarios {
		out = append(out, s.Windows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ActiveOn lists the windows in force on a day
func (r *Registry) ActiveOn(date time.Time) []Window {
	var out []Window
	for _, w := range r.Windows() {
		if w.Active(date) {
			out = append(out, w)
		}
	}
	return out
}

// Len returns the number of windows
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.scenarios {
		n += len(s.Windows)
	}
	return n
}
