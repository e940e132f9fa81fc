package aspects

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const (
	exactMatch   = 1.0
	partialMatch = 0.7
	// Items scoring above this count as matched.
	matchedThreshold = 0.5
)

// tokenOverlap compares two free-form strings: identical scores 1.0, any
// shared token 0.7, otherwise 0.
func tokenOverlap(candidate, job string) Result {
	a, b := normalize(candidate), normalize(job)
	if a == "" || b == "" {
		return Result{Score: 0, Reason: "location could not be compared"}
	}

	if a == b {
		return Result{Score: exactMatch, Reason: fmt.Sprintf("same location: %s", strings.TrimSpace(job))}
	}

	jobTokens := make(map[string]struct{})
	for _, t := range tokens(b) {
		jobTokens[t] = struct{}{}
	}

	for _, t := range tokens(a) {
		if _, ok := jobTokens[t]; ok {
			return Result{Score: partialMatch, Reason: fmt.Sprintf("locations share %q", t)}
		}
	}

	return Result{Score: 0, Reason: fmt.Sprintf("%s does not match %s", strings.TrimSpace(candidate), strings.TrimSpace(job))}
}

// itemScore rates how well have covers want.
func itemScore(have, want string) float64 {
	h, w := normalize(have), normalize(want)
	switch {
	case h == "" || w == "":
		return 0
	case h == w:
		return exactMatch
	case strings.Contains(h, w) || strings.Contains(w, h):
		return partialMatch
	default:
		return 0
	}
}

// listMatch scores each required item by its best candidate item and
// averages over the required items.
func listMatch(candidate, required []string) Result {
	if len(required) == 0 {
		return Result{Score: 0, Reason: "nothing required"}
	}

	var (
		total   float64
		matched []string
		missing []string
	)

	for _, want := range required {
		best := 0.0
		for _, have := range candidate {
			if s := itemScore(have, want); s > best {
				best = s
			}
		}

		total += best
		if best > matchedThreshold {
			matched = append(matched, want)
		} else {
			missing = append(missing, want)
		}
	}

	return Result{
		Score:   total / float64(len(required)),
		Reason:  fmt.Sprintf("%d of %d requirements matched by name", len(matched), len(required)),
		Matched: matched,
		Missing: missing,
	}
}

var levelRanks = map[string]int{
	"a1":                 1,
	"basic":              1,
	"beginner":           1,
	"elementary":         1,
	"a2":                 2,
	"pre-intermediate":   2,
	"b1":                 3,
	"intermediate":       3,
	"b2":                 4,
	"upper-intermediate": 4,
	"upper intermediate": 4,
	"c1":                 5,
	"advanced":           5,
	"proficient":         5,
	"c2":                 6,
	"fluent":             6,
	"native":             7,
	"mother tongue":      7,
	"bilingual":          7,
}

func levelRank(level string) (int, bool) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return 0, false
	}
	if r, ok := levelRanks[level]; ok {
		return r, true
	}
	// "C1 (advanced)", "fluent speaker" and similar.
	for _, word := range strings.FieldsFunc(level, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' }) {
		if r, ok := levelRanks[word]; ok {
			return r, true
		}
	}
	return 0, false
}

// languageMatch compares proficiency levels for every required language.
func languageMatch(candidate, required map[string]string) Result {
	if len(required) == 0 {
		return Result{Score: 0, Reason: "nothing required"}
	}

	have := make(map[string]string, len(candidate))
	for name, level := range candidate {
		have[normalize(name)] = level
	}

	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		total   float64
		matched []string
		missing []string
	)

	for _, name := range names {
		level, ok := have[normalize(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}

		score := compareLevels(level, required[name])
		total += score
		if score > matchedThreshold {
			matched = append(matched, name)
		} else {
			missing = append(missing, name)
		}
	}

	return Result{
		Score:   total / float64(len(names)),
		Reason:  fmt.Sprintf("%d of %d required languages at the required level", len(matched), len(names)),
		Matched: matched,
		Missing: missing,
	}
}

func compareLevels(have, want string) float64 {
	wantRank, wantKnown := levelRank(want)
	if strings.TrimSpace(want) == "" {
		return exactMatch
	}

	haveRank, haveKnown := levelRank(have)
	if !wantKnown || !haveKnown {
		return partialMatch
	}

	if haveRank >= wantRank {
		return exactMatch
	}
	return 0.5
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
