// Package generation runs the APR simulation: per-day generators for the
// nine categories, the cross-reference resolver, tiling into reporting
// periods and the service that ties runs to export and the run ledger.
package generation

import (
	"math"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/infrastructure/rng"
)

// idDate is the yymmdd stamp embedded in record identifiers
const idDate = "060102"

// dayContext is everything a generator may read while producing one day.
// Generators never share state across days.
type dayContext struct {
	index    int
	date     time.Time
	seed     int64
	perDay   int
	product  apr.Product
	factory  *rng.Factory
	registry *scenario.Registry
}

func (d dayContext) stream(c apr.Category, index int) *rng.Stream {
	return d.factory.StreamFor(c, d.date, index, d.seed)
}

// measure draws a continuous field around its target, applies the active
// scenario effects of date and scope, and clamps to physical bounds.
func (d dayContext) measure(s *rng.Stream, c apr.Category, field, scope string, date time.Time) float64 {
	p := apr.MustBaseline(c, field)
	return p.Record(d.registry.Net(c, field, scope, date).Apply(s.Normal(p.Target, p.StdDev)))
}

// skewed draws a right-skewed field (counts, impurities, friability) from an
// exponential with the target as its mean.
func (d dayContext) skewed(s *rng.Stream, c apr.Category, field, scope string, date time.Time) float64 {
	p := apr.MustBaseline(c, field)
	return p.Record(d.registry.Net(c, field, scope, date).Apply(s.Exponential(p.Target)))
}

// around records base plus noise from the field's spread
func (d dayContext) around(s *rng.Stream, c apr.Category, field, scope string, date time.Time, base float64) float64 {
	p := apr.MustBaseline(c, field)
	return p.Record(d.registry.Net(c, field, scope, date).Apply(base + s.Normal(0, p.StdDev)))
}

// rate returns a perturbed, unrounded rate parameter
func (d dayContext) rate(c apr.Category, field, scope string, date time.Time) float64 {
	p := apr.MustBaseline(c, field)
	return p.Clamp(d.registry.Net(c, field, scope, date).Apply(p.Target))
}

// choose draws a categorical level after scenario reweighting
func (d dayContext) choose(s *rng.Stream, c apr.Category, field, scope string, date time.Time) string {
	return s.Weighted(d.registry.Reweight(c, field, scope, date, apr.MustDistribution(c, field)))
}

// pickOther picks an element of items different from exclude
func pickOther(s *rng.Stream, items []string, exclude string) string {
	for {
		v := s.Pick(items)
		if v != exclude || len(items) < 2 {
			return v
		}
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(apr.Day(to).Sub(apr.Day(from)).Hours() / 24))
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(std / float64(len(values)))
}
