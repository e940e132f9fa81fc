package aspects

import (
	"context"
	"strings"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/profile"
)

// Education judges degrees against the job's education requirement.
func (c *Comparators) Education(ctx context.Context, degrees []profile.Education, required string) Result {
	cv := (&profile.CandidateProfile{Education: degrees}).EducationText()

	required = strings.TrimSpace(required)

	switch {
	case required == "" && cv == "":
		return notApplicable("no education on either side")
	case required == "":
		return notApplicable("the job states no education requirement")
	case cv == "":
		return noData("the candidate lists no education")
	}

	return c.judge.ask(ctx, ai.Request{
		Task:      ai.TaskEducation,
		Candidate: cv,
		Job:       required,
	}, shapePair, narrativeFallback)
}
