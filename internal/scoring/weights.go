// Package scoring resolves aspect weights and aggregates aspect results into
// a single score breakdown.
package scoring

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/aspects"
)

// normalizeTolerance is how far the weight total may drift from 1 before it is renormalized.
const normalizeTolerance = 0.01

// Weights maps an aspect to its share of the final score.
type Weights map[aspects.Aspect]float64

var defaults = Weights{
	aspects.Experience:       0.30,
	aspects.TechnicalSkills:  0.15,
	aspects.Education:        0.15,
	aspects.Responsibilities: 0.15,
	aspects.Certifications:   0.10,
	aspects.SoftSkills:       0.08,
	aspects.Languages:        0.04,
	aspects.Location:         0.03,
}

// DefaultWeights returns a fresh copy of the default weights.
func DefaultWeights() Weights {
	return defaults.clone()
}

// Total sums every weight.
func (w Weights) Total() float64 {
	total := 0.0
	for _, a := range aspects.All {
		total += w[a]
	}
	return total
}

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Resolve applies sparse overrides on top of the defaults. Unknown aspect
// names and negative values are skipped. When the result does not sum to 1
// within tolerance every weight is divided by the total.
func Resolve(overrides map[string]float64, log *zap.Logger) Weights {
	if log == nil {
		log = zap.NewNop()
	}

	weights := DefaultWeights()

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		value := overrides[name]
		switch {
		case !aspects.Known(name):
			log.Debug("ignoring weight for unknown aspect", zap.String("aspect", name))
		case value < 0 || math.IsNaN(value) || math.IsInf(value, 0):
			log.Warn("ignoring invalid weight", zap.String("aspect", name), zap.Float64("weight", value))
		default:
			weights[aspects.Aspect(name)] = value
		}
	}

	total := weights.Total()
	if total <= 0 || round(math.Abs(total-1), 9) <= normalizeTolerance {
		return weights
	}

	log.Warn("weights do not sum to 1, normalizing", zap.Float64("total", total))
	for a, v := range weights {
		weights[a] = v / total
	}

	return weights
}
