package aspects

import (
	"context"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/profile"
)

// Responsibilities infers from the work history which of the job's
// responsibilities the candidate has already carried out.
func (c *Comparators) Responsibilities(ctx context.Context, history []profile.Experience, required []string) Result {
	cv := (&profile.CandidateProfile{Experience: history}).ExperienceText()

	switch {
	case len(required) == 0 && cv == "":
		return notApplicable("no responsibilities and no work history")
	case len(required) == 0:
		return notApplicable("the job lists no responsibilities")
	case cv == "":
		return noData("the candidate lists no work history")
	}

	return c.judge.ask(ctx, ai.Request{
		Task:      ai.TaskResponsibilities,
		Candidate: cv,
		Job:       profile.ListText(required),
	}, shapeList, narrativeFallback)
}
