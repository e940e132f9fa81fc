// Package aspects compares one facet of a résumé with the matching facet of a
// job posting. Every comparator consults the judgment oracle and falls back to
// a deterministic heuristic when the oracle fails or replies with garbage.
package aspects

// Aspect names one compared facet.
type Aspect string

const (
	Experience       Aspect = "experience"
	TechnicalSkills  Aspect = "technical_skills"
	Education        Aspect = "education"
	Responsibilities Aspect = "responsibilities"
	Certifications   Aspect = "certifications"
	SoftSkills       Aspect = "soft_skills"
	Languages        Aspect = "languages"
	Location         Aspect = "location"
)

// All lists every aspect in reporting order.
var All = []Aspect{
	Experience,
	TechnicalSkills,
	Education,
	Responsibilities,
	Certifications,
	SoftSkills,
	Languages,
	Location,
}

// Known reports whether name is one of the recognised aspects.
func Known(name string) bool {
	for _, a := range All {
		if string(a) == name {
			return true
		}
	}
	return false
}

// NotApplicable marks an aspect that cannot be compared. It is excluded from
// aggregation instead of counting as zero.
const NotApplicable = -1.0

// Source tells how a Result was produced.
type Source string

const (
	// SourceRule results are decided from data presence alone.
	SourceRule Source = "rule"
	// SourceOracle results come from a parsed oracle reply.
	SourceOracle Source = "oracle"
	// SourceFallback results come from a heuristic after an oracle failure.
	SourceFallback Source = "fallback"
)

// Result is the outcome of one aspect comparison. Score is NotApplicable or in [0,1].
type Result struct {
	Score   float64  `json:"score"`
	Reason  string   `json:"reason"`
	Matched []string `json:"matched,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Source  Source   `json:"source"`
}

// Ignored reports whether the result is excluded from aggregation.
func (r Result) Ignored() bool {
	return r.Score == NotApplicable
}

// Results maps each aspect to its comparison result.
type Results map[Aspect]Result

func notApplicable(reason string) Result {
	return Result{Score: NotApplicable, Reason: reason, Source: SourceRule}
}

func noData(reason string) Result {
	return Result{Score: 0, Reason: reason, Source: SourceRule}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
