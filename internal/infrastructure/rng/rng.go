// Package rng derives independent, reproducible random streams from the
// coordinates of a generated record.
package rng

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cespare/xxhash/v2"

	"github.com/nyos/apr/internal/domain/apr"
)

// DefaultSeed is the run seed used when a caller does not supply one
const DefaultSeed = apr.DefaultSeed

// streamSalt decorrelates the second PCG word from the first
const streamSalt uint64 = 0x9e3779b97f4a7c15

// Factory hands out streams keyed by (category, date, index, seed). Two calls
// with the same key always return streams producing the same sequence, so
// generation order and parallelism never change the output.
type Factory struct{}

// NewFactory creates a stream factory
func NewFactory() *Factory {
	return &Factory{}
}

// Key hashes the stream coordinates
func Key(category apr.Category, date time.Time, index int, seed int64) uint64 {
	var buf [8]byte
	d := xxhash.New()
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(string(category))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(apr.Day(date).Format(apr.DateLayout))
	binary.LittleEndian.PutUint64(buf[:], uint64(index))
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

// StreamFor returns the stream of one record, or of one day when index is a
// per-day slot.
func (f *Factory) StreamFor(category apr.Category, date time.Time, index int, seed int64) *Stream {
	return newStream(Key(category, date, index, seed))
}

// Stream is a deterministic source of draws. It is not safe for concurrent use;
// every record owns its own stream.
type Stream struct {
	key   uint64
	r     *rand.Rand
	faker *gofakeit.Faker
}

func newStream(key uint64) *Stream {
	return &Stream{
		key: key,
		r:   rand.New(rand.NewPCG(key, key^streamSalt)),
	}
}

// Key returns the hash the stream was seeded with
func (s *Stream) Key() uint64 { return s.key }

// Float64 returns a uniform draw in [0, 1)
func (s *Stream) Float64() float64 { return s.r.Float64() }

// IntN returns a uniform draw in [0, n). It returns 0 when n <= 0.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// IntRange returns a uniform draw in [lo, hi], inclusive
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Uniform returns a uniform draw in [lo, hi)
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.r.Float64()
}

// Normal returns a Gaussian draw
func (s *Stream) Normal(mean, sd float64) float64 {
	if sd <= 0 {
		return mean
	}
	return mean + sd*s.r.NormFloat64()
}

// Exponential returns an exponential draw with the given mean
func (s *Stream) Exponential(mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	return mean * s.r.ExpFloat64()
}

// poissonNormalCutoff is the rate above which the normal approximation is
// used; exp(-lambda) underflows well before Knuth's method gets slow.
const poissonNormalCutoff = 30

// Poisson returns a Poisson draw with rate lambda
func (s *Stream) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > poissonNormalCutoff {
		n := int(math.Round(s.Normal(lambda, math.Sqrt(lambda))))
		if n < 0 {
			return 0
		}
		return n
	}
	limit := math.Exp(-lambda)
	k := 0
	p := s.r.Float64()
	for p > limit {
		k++
		p *= s.r.Float64()
	}
	return k
}

// Bernoulli returns true with probability p
func (s *Stream) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.r.Float64() < p
}

// Pick returns a uniformly chosen item, or "" for an empty list
func (s *Stream) Pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[s.r.IntN(len(items))]
}

// Choice returns a uniformly chosen element of items
func Choice[T any](s *Stream, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[s.r.IntN(len(items))]
}

// Weighted draws a level proportionally to its weight. Weights need not sum
// to one. It returns "" when no level has positive weight.
func (s *Stream) Weighted(levels []apr.WeightedLevel) string {
	total := 0.0
	for _, l := range levels {
		if l.Weight > 0 {
			total += l.Weight
		}
	}
	if total <= 0 {
		return ""
	}
	x := s.r.Float64() * total
	for _, l := range levels {
		if l.Weight <= 0 {
			continue
		}
		if x < l.Weight {
			return l.Value
		}
		x -= l.Weight
	}
	return levels[len(levels)-1].Value
}

// WeightedIndex draws an index proportionally to weights, or -1 if none is positive
func (s *Stream) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	x := s.r.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if x < w {
			return i
		}
		x -= w
	}
	return last
}

// Faker returns a gofakeit faker seeded from the stream key. It is created on
// first use and does not consume draws from the stream.
func (s *Stream) Faker() *gofakeit.Faker {
	if s.faker == nil {
		s.faker = gofakeit.New(s.key ^ streamSalt)
	}
	return s.faker
}

// Name returns a deterministic person name
func (s *Stream) Name() string {
	return s.Faker().Name()
}

// Sentence returns a deterministic filler sentence of n words
func (s *Stream) Sentence(n int) string {
	return s.Faker().Sentence(n)
}
