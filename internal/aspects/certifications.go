package aspects

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/profile"
)

const (
	comparedWithSkills   = "[Compared with technical skills] "
	noAdequateCertPrefix = "No adequate certification found; technical skills considered at 50%: "
)

// CertificationInput carries both sides' certifications plus the technical
// skills used when certifications are missing on one side.
type CertificationInput struct {
	Candidate       []string
	Required        []string
	CandidateSkills []string
	JobSkills       []string
}

// Certifications compares certifications. When the job requires certifications
// the candidate's technical skills may stand in for them at half value. When
// the job requires none, the candidate's certifications are checked for
// relevance against the job's technical skills.
func (c *Comparators) Certifications(ctx context.Context, in CertificationInput) Result {
	if len(in.Required) == 0 {
		switch {
		case len(in.Candidate) == 0:
			return notApplicable("no certifications on either side")
		case len(in.JobSkills) == 0:
			return notApplicable("the job requires no certifications and lists no technical skills")
		}

		res := c.compareCertifications(ctx, ai.TaskCertifications, in.Candidate, in.JobSkills)
		res.Reason = comparedWithSkills + res.Reason
		return res
	}

	var (
		direct, bySkills *Result
		g                errgroup.Group
	)

	if len(in.Candidate) > 0 {
		g.Go(func() error {
			r := c.compareCertifications(ctx, ai.TaskCertifications, in.Candidate, in.Required)
			direct = &r
			return nil
		})
	}

	if len(in.CandidateSkills) > 0 {
		g.Go(func() error {
			r := c.compareCertifications(ctx, ai.TaskCertificationsBySkills, in.CandidateSkills, in.Required)
			r.Score *= skillsPenalty
			r.Reason = noAdequateCertPrefix + r.Reason
			bySkills = &r
			return nil
		})
	}

	// Both calls only produce fallbacks on failure, never errors.
	_ = g.Wait()

	switch {
	case direct == nil && bySkills == nil:
		return noData("the candidate has neither certifications nor technical skills")
	case direct == nil:
		return *bySkills
	case bySkills == nil:
		return *direct
	case bySkills.Score > direct.Score:
		return *bySkills
	default:
		return *direct
	}
}

func (c *Comparators) compareCertifications(ctx context.Context, task ai.Task, candidate, required []string) Result {
	return c.judge.ask(ctx, ai.Request{
		Task:      task,
		Candidate: profile.ListText(candidate),
		Job:       profile.ListText(required),
	}, shapeList, func() Result {
		return listMatch(candidate, required)
	})
}
