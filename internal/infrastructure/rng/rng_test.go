package rng

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nyos/apr/internal/domain/apr"
)

var jan1 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func draws(s *Stream, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Float64()
	}
	return out
}

func TestFactory_Determinism(t *testing.T) {
	f := NewFactory()

	a := draws(f.StreamFor(apr.CategoryBatch, jan1, 3, 42), 20)
	b := draws(f.StreamFor(apr.CategoryBatch, jan1.Add(13*time.Hour), 3, 42), 20)
	assert.Equal(t, a, b, "time of day must not change the key")

	tests := []struct {
		name     string
		category apr.Category
		date     time.Time
		index    int
		seed     int64
	}{
		{"other category", apr.CategoryQC, jan1, 3, 42},
		{"other day", apr.CategoryBatch, jan1.AddDate(0, 0, 1), 3, 42},
		{"other index", apr.CategoryBatch, jan1, 4, 42},
		{"other seed", apr.CategoryBatch, jan1, 3, 43},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := draws(f.StreamFor(tt.category, tt.date, tt.index, tt.seed), 20)
			assert.NotEqual(t, a, other)
		})
	}
}

func TestStream_Ranges(t *testing.T) {
	s := NewFactory().StreamFor(apr.CategoryEnvironmental, jan1, 0, DefaultSeed)

	for i := 0; i < 1000; i++ {
		v := s.IntRange(1, 3)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 3)
		assert.GreaterOrEqual(t, s.Poisson(0.7), 0)
		assert.Less(t, s.IntN(5), 5)
	}
	assert.Equal(t, 0, s.IntN(0))
	assert.Equal(t, 7, s.IntRange(7, 7))
	assert.Equal(t, 0, s.Poisson(0))
	assert.Equal(t, 12.0, s.Normal(12, 0))
	assert.False(t, s.Bernoulli(0))
	assert.True(t, s.Bernoulli(1))
}

func TestStream_PoissonMean(t *testing.T) {
	s := NewFactory().StreamFor(apr.CategoryComplaint, jan1, 0, DefaultSeed)
	for _, lambda := range []float64{0.5, 4, 80} {
		total := 0
		n := 20000
		for i := 0; i < n; i++ {
			total += s.Poisson(lambda)
		}
		assert.InDelta(t, lambda, float64(total)/float64(n), lambda*0.05+0.02, "lambda %v", lambda)
	}
}

func TestStream_Weighted(t *testing.T) {
	s := NewFactory().StreamFor(apr.CategoryCAPA, jan1, 0, DefaultSeed)
	levels := []apr.WeightedLevel{{Value: "a", Weight: 0}, {Value: "b", Weight: 3}, {Value: "c", Weight: 1}}

	counts := map[string]int{}
	for i := 0; i < 8000; i++ {
		counts[s.Weighted(levels)]++
	}
	assert.Zero(t, counts["a"])
	assert.InDelta(t, 0.75, float64(counts["b"])/8000, 0.03)
	assert.Equal(t, "", s.Weighted(nil))

	assert.Equal(t, -1, s.WeightedIndex([]float64{0, 0}))
	assert.Equal(t, 1, s.WeightedIndex([]float64{0, 2, 0}))
}

func TestStream_Faker(t *testing.T) {
	f := NewFactory()
	a := f.StreamFor(apr.CategoryBatchRelease, jan1, 9, 42)
	b := f.StreamFor(apr.CategoryBatchRelease, jan1, 9, 42)

	assert.Equal(t, a.Name(), b.Name())
	assert.Equal(t, a.Sentence(6), b.Sentence(6))
	assert.Equal(t, a.Float64(), b.Float64(), "faker use must not shift the stream")
	assert.Equal(t, "y", Choice(a, []string{"y"}))
}
