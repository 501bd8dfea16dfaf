// Package scenario holds the calendar of time-boxed perturbations that are
// covertly injected into generated records.
package scenario

import (
	"math"
	"strings"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
)

// Shape describes how a window's magnitude evolves across its dates
type Shape string

const (
	// ShapeRamp grows linearly from zero at the start to the full magnitude at the end
	ShapeRamp Shape = "ramp"
	// ShapeStep applies the full magnitude on every day of the window
	ShapeStep Shape = "step"
	// ShapeSeasonal follows an annual sine that peaks in mid-July
	ShapeSeasonal Shape = "seasonal"
)

// IsValid checks if the shape is known
func (s Shape) IsValid() bool {
	switch s {
	case ShapeRamp, ShapeStep, ShapeSeasonal:
		return true
	default:
		return false
	}
}

// String returns the string representation of the shape
func (s Shape) String() string {
	return string(s)
}

// Mode describes how a window combines with the baseline
type Mode string

const (
	// ModeAdditive shifts the value by magnitude × shape
	ModeAdditive Mode = "additive"
	// ModeMultiplicative scales the value by 1 + (magnitude - 1) × shape
	ModeMultiplicative Mode = "multiplicative"
)

// IsValid checks if the mode is known
func (m Mode) IsValid() bool {
	return m == ModeAdditive || m == ModeMultiplicative
}

// String returns the string representation of the mode
func (m Mode) String() string {
	return string(m)
}

// ParseShape parses a shape name case-insensitively
func ParseShape(s string) (Shape, error) {
	shape := Shape(strings.ToLower(strings.TrimSpace(s)))
	if !shape.IsValid() {
		return "", shared.NewConfigurationError("unknown scenario shape %q", s)
	}
	return shape, nil
}

// ParseMode parses a mode name case-insensitively
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.IsValid() {
		return "", shared.NewConfigurationError("unknown scenario mode %q", s)
	}
	return mode, nil
}

// seasonalPhaseDay shifts the annual sine so it crosses zero mid-April and
// peaks around day 196.
const seasonalPhaseDay = 105

// Window is one perturbation of one field over an inclusive date range.
// Scope restricts it to a press, room or supplier; empty means everywhere.
// Level names a categorical outcome to reweight; empty targets a continuous field.
type Window struct {
	ID          string
	StartDate   time.Time
	EndDate     time.Time
	Category    apr.Category
	Field       string
	Level       string
	Scope       string
	Shape       Shape
	Mode        Mode
	Magnitude   float64
	Description string
}

// Validate checks the window against the parameter model
func (w Window) Validate() error {
	if w.ID == "" {
		return shared.NewConfigurationError("scenario window requires an id")
	}
	if w.StartDate.IsZero() || w.EndDate.IsZero() {
		return shared.NewConfigurationError("window %s: start and end dates are required", w.ID)
	}
	if w.EndDate.Before(w.StartDate) {
		return shared.NewConfigurationError("window %s: end date %s precedes start date %s",
			w.ID, w.EndDate.Format(apr.DateLayout), w.StartDate.Format(apr.DateLayout))
	}
	if !w.Category.Valid() {
		return shared.NewConfigurationError("window %s: unknown category %q", w.ID, w.Category)
	}
	if w.Field == "" {
		return shared.NewConfigurationError("window %s: field is required", w.ID)
	}
	if !w.Shape.IsValid() {
		return shared.NewConfigurationError("window %s: unknown shape %q", w.ID, w.Shape)
	}
	if !w.Mode.IsValid() {
		return shared.NewConfigurationError("window %s: unknown mode %q", w.ID, w.Mode)
	}
	if w.Level != "" {
		if !apr.HasLevel(w.Category, w.Field, w.Level) {
			return shared.NewConfigurationError("window %s: %s/%s has no level %q", w.ID, w.Category, w.Field, w.Level)
		}
		if w.Mode != ModeMultiplicative {
			return shared.NewConfigurationError("window %s: level reweighting must be multiplicative", w.ID)
		}
	} else if !apr.IsContinuous(w.Category, w.Field) {
		return shared.NewConfigurationError("window %s: no parameter %s/%s", w.ID, w.Category, w.Field)
	}
	if w.Mode == ModeMultiplicative && w.Magnitude <= 0 {
		return shared.NewConfigurationError("window %s: multiplicative magnitude must be positive, got %g", w.ID, w.Magnitude)
	}
	return nil
}

// Active reports whether the window covers the calendar day of t
func (w Window) Active(t time.Time) bool {
	d := apr.Day(t)
	return !d.Before(apr.Day(w.StartDate)) && !d.After(apr.Day(w.EndDate))
}

// Covers reports whether the window applies to the given scope
func (w Window) Covers(scope string) bool {
	return w.Scope == "" || w.Scope == scope
}

// ShapeAt returns the unit shape value on day t, or 0 outside the window
func (w Window) ShapeAt(t time.Time) float64 {
	if !w.Active(t) {
		return 0
	}
	switch w.Shape {
	case ShapeRamp:
		start, end := apr.Day(w.StartDate), apr.Day(w.EndDate)
		length := end.Sub(start).Hours() / 24
		if length <= 0 {
			return 1
		}
		return (apr.Day(t).Sub(start).Hours() / 24) / length
	case ShapeSeasonal:
		doy := float64(t.YearDay())
		return math.Sin(2 * math.Pi * (doy - seasonalPhaseDay) / 365)
	default:
		return 1
	}
}

// Contribution returns the additive offset or the multiplicative factor of
// the window on day t. Inactive windows contribute the identity.
func (w Window) Contribution(t time.Time) float64 {
	s := w.ShapeAt(t)
	if w.Mode == ModeMultiplicative {
		if !w.Active(t) {
			return 1
		}
		return 1 + (w.Magnitude-1)*s
	}
	return w.Magnitude * s
}

func (w Window) target() string {
	return string(w.Category) + "/" + w.Field + "/" + w.Level
}

func (w Window) overlaps(o Window) bool {
	if w.target() != o.target() {
		return false
	}
	if w.Scope != "" && o.Scope != "" && w.Scope != o.Scope {
		return false
	}
	return !apr.Day(w.StartDate).After(apr.Day(o.EndDate)) && !apr.Day(o.StartDate).After(apr.Day(w.EndDate))
}

// Scenario groups the windows of one named real-world event
type Scenario struct {
	ID      string
	Name    string
	Period  string
	Windows []Window
}

// Effects lists the descriptions of the scenario's windows
func (s Scenario) Effects() []string {
	out := make([]string, 0, len(s.Windows))
	for _, w := range s.Windows {
		if w.Description != "" {
			out = append(out, w.Description)
		}
	}
	return out
}

// Categories lists the categories the scenario perturbs, in canonical order
func (s Scenario) Categories() apr.CategorySet {
	cats := make([]apr.Category, 0, len(s.Windows))
	for _, w := range s.Windows {
		cats = append(cats, w.Category)
	}
	return apr.NewCategorySet(cats...)
}
