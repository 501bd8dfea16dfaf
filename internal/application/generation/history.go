package generation

import (
	"math"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/infrastructure/rng"
)

// historyDays is how far back complaints and CAPAs look for their batch
const historyDays = 90

// history is the sampling pool of one day: the batches made during the
// historyDays before it, never on the day itself.
type history struct {
	batches []apr.Batch
	weights []float64
}

func (h history) empty() bool { return len(h.batches) == 0 }

// sample draws a batch, favouring the ones with quality signals
func (h history) sample(s *rng.Stream) apr.Batch {
	return h.batches[s.WeightedIndex(h.weights)]
}

// samplingWeight biases market events toward batches that failed QC, had a
// deviation, or yielded poorly.
func samplingWeight(b apr.Batch, qcFailed bool) float64 {
	w := 1.0
	if qcFailed {
		w += 4
	}
	if b.HasDeviation {
		w += 2
	}
	return w + math.Max(0, 97-b.YieldPercent)
}
