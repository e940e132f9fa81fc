package scoring

import (
	"math"

	"github.com/spigell/cv-matcher/internal/aspects"
)

// Confidence tells how much of a breakdown rests on oracle judgments.
type Confidence string

const (
	// ConfidenceFull means no aspect had to fall back.
	ConfidenceFull Confidence = "full"
	// ConfidencePartial means some aspects were scored heuristically.
	ConfidencePartial Confidence = "partial"
	// ConfidenceHeuristic means the oracle was consulted and never answered usefully.
	ConfidenceHeuristic Confidence = "heuristic"
)

// AspectScore is one line of a breakdown.
type AspectScore struct {
	Score        float64        `json:"score"`
	Weight       float64        `json:"weight"`
	Contribution float64        `json:"contribution"`
	Ignored      bool           `json:"ignored"`
	Source       aspects.Source `json:"source,omitempty"`
}

// Breakdown is the aggregated outcome of one comparison.
type Breakdown struct {
	Aspects         map[aspects.Aspect]AspectScore `json:"score_breakdown"`
	FinalScore      float64                        `json:"final_score"`
	RawScore        float64                        `json:"raw_score"`
	UsedWeight      float64                        `json:"used_weight"`
	TotalWeight     float64                        `json:"total_weight"`
	IgnoredAspects  []aspects.Aspect               `json:"ignored_aspects"`
	Weights         Weights                        `json:"weights_used"`
	Confidence      Confidence                     `json:"confidence"`
	Degraded        bool                           `json:"degraded"`
	FallbackAspects []aspects.Aspect               `json:"fallback_aspects,omitempty"`
}

// Percentage is the final score on a 0..100 scale.
func (b *Breakdown) Percentage() float64 {
	return round(b.FinalScore*100, 1)
}

// Calculate aggregates results with the given weights. A nil weights map
// means the defaults. Ignored aspects add nothing to the numerator or to the
// used weight; aspects missing from results count as ignored.
func Calculate(results aspects.Results, weights Weights) *Breakdown {
	if weights == nil {
		weights = DefaultWeights()
	}

	b := &Breakdown{
		Aspects:        make(map[aspects.Aspect]AspectScore, len(aspects.All)),
		IgnoredAspects: []aspects.Aspect{},
		Weights:        weights.clone(),
		TotalWeight:    round(weights.Total(), 3),
	}

	var (
		numerator float64
		used      float64
		consulted int
		fellBack  int
	)

	for _, a := range aspects.All {
		res, ok := results[a]
		if !ok {
			res = aspects.Result{Score: aspects.NotApplicable}
		}

		weight := weights[a]
		line := AspectScore{Score: res.Score, Weight: weight, Source: res.Source}

		switch res.Source {
		case aspects.SourceOracle:
			consulted++
		case aspects.SourceFallback:
			consulted++
			fellBack++
			b.FallbackAspects = append(b.FallbackAspects, a)
		}

		if res.Ignored() {
			line.Ignored = true
			b.IgnoredAspects = append(b.IgnoredAspects, a)
		} else {
			line.Contribution = res.Score * weight
			numerator += line.Contribution
			used += weight
		}

		b.Aspects[a] = line
	}

	if used > 0 {
		b.FinalScore = round(numerator/used, 3)
	}
	b.RawScore = round(numerator, 3)
	b.UsedWeight = round(used, 3)

	switch {
	case fellBack == 0:
		b.Confidence = ConfidenceFull
	case fellBack == consulted:
		b.Confidence = ConfidenceHeuristic
		b.Degraded = true
	default:
		b.Confidence = ConfidencePartial
	}

	return b
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
