package aspects

import (
	"context"
	"strings"

	"github.com/spigell/cv-matcher/internal/ai"
)

// Location compares where the candidate lives with where the job is.
func (c *Comparators) Location(ctx context.Context, candidate, required string) Result {
	candidate, required = strings.TrimSpace(candidate), strings.TrimSpace(required)

	switch {
	case required == "" && candidate == "":
		return notApplicable("no location on either side")
	case required == "":
		return notApplicable("the job states no location")
	case candidate == "":
		return noData("the candidate states no location")
	}

	return c.judge.ask(ctx, ai.Request{
		Task:      ai.TaskLocation,
		Candidate: candidate,
		Job:       required,
	}, shapePair, func() Result {
		return tokenOverlap(candidate, required)
	})
}
