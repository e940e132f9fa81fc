package aspects

import (
	"context"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/profile"
)

// Languages compares spoken languages and proficiency levels.
func (c *Comparators) Languages(ctx context.Context, candidate, required map[string]string) Result {
	switch {
	case len(required) == 0 && len(candidate) == 0:
		return notApplicable("no languages on either side")
	case len(required) == 0:
		return notApplicable("the job requires no languages")
	case len(candidate) == 0:
		return noData("the candidate lists no languages")
	}

	return c.judge.ask(ctx, ai.Request{
		Task:      ai.TaskLanguages,
		Candidate: profile.LanguagesText(candidate),
		Job:       profile.LanguagesText(required),
	}, shapeList, func() Result {
		return languageMatch(candidate, required)
	})
}
