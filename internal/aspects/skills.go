package aspects

import (
	"context"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/profile"
)

// TechnicalSkills compares hard skills.
func (c *Comparators) TechnicalSkills(ctx context.Context, candidate, required []string) Result {
	return c.compareLists(ctx, ai.TaskTechnicalSkills, "technical skills", candidate, required)
}

// SoftSkills compares interpersonal skills.
func (c *Comparators) SoftSkills(ctx context.Context, candidate, required []string) Result {
	return c.compareLists(ctx, ai.TaskSoftSkills, "soft skills", candidate, required)
}

func (c *Comparators) compareLists(ctx context.Context, task ai.Task, label string, candidate, required []string) Result {
	switch {
	case len(required) == 0 && len(candidate) == 0:
		return notApplicable("neither the job nor the candidate lists " + label)
	case len(required) == 0:
		return notApplicable("the job does not require " + label)
	case len(candidate) == 0:
		return noData("the candidate lists no " + label)
	}

	return c.judge.ask(ctx, ai.Request{
		Task:      task,
		Candidate: profile.ListText(candidate),
		Job:       profile.ListText(required),
	}, shapeList, func() Result {
		return listMatch(candidate, required)
	})
}
