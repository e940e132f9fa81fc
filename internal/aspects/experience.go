package aspects

import (
	"context"
	"strings"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/profile"
)

// Experience judges the work history against the job's experience requirement.
func (c *Comparators) Experience(ctx context.Context, history []profile.Experience, required string) Result {
	cv := (&profile.CandidateProfile{Experience: history}).ExperienceText()

	required = strings.TrimSpace(required)

	switch {
	case required == "" && cv == "":
		return notApplicable("no experience on either side")
	case required == "":
		return notApplicable("the job states no experience requirement")
	case cv == "":
		return noData("the candidate lists no work experience")
	}

	return c.judge.ask(ctx, ai.Request{
		Task:      ai.TaskExperience,
		Candidate: cv,
		Job:       required,
	}, shapePair, narrativeFallback)
}
