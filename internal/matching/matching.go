// Package matching runs every aspect comparison for a candidate and a job and
// aggregates the outcome into a report.
package matching

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-matcher/internal/aspects"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/profile"
	"github.com/spigell/cv-matcher/internal/scoring"
)

// Matcher compares candidates with jobs.
type Matcher struct {
	comparators *aspects.Comparators
	logger      *zap.Logger
}

// Report is the full outcome of one comparison.
type Report struct {
	Candidate string             `json:"candidate"`
	JobTitle  string             `json:"job_title"`
	Company   string             `json:"company,omitempty"`
	Results   aspects.Results    `json:"results"`
	Breakdown *scoring.Breakdown `json:"breakdown"`
	Duration  time.Duration      `json:"duration"`
}

func New(comparators *aspects.Comparators, log *zap.Logger) *Matcher {
	if comparators == nil {
		comparators = aspects.New(nil)
	}
	return &Matcher{
		comparators: comparators,
		logger:      logger.WithFields(log),
	}
}

// RunAll runs the eight comparisons concurrently and waits for all of them.
// Comparators never fail, so the returned map always holds every aspect.
func (m *Matcher) RunAll(ctx context.Context, cv *profile.CandidateProfile, job *profile.JobRequirement) aspects.Results {
	if cv == nil {
		cv = &profile.CandidateProfile{}
	}
	if job == nil {
		job = &profile.JobRequirement{}
	}

	comparisons := map[aspects.Aspect]func(context.Context) aspects.Result{
		aspects.Experience: func(ctx context.Context) aspects.Result {
			return m.comparators.Experience(ctx, cv.Experience, job.Experience)
		},
		aspects.TechnicalSkills: func(ctx context.Context) aspects.Result {
			return m.comparators.TechnicalSkills(ctx, cv.TechnicalSkills, job.TechnicalSkills)
		},
		aspects.Education: func(ctx context.Context) aspects.Result {
			return m.comparators.Education(ctx, cv.Education, job.Education)
		},
		aspects.Responsibilities: func(ctx context.Context) aspects.Result {
			return m.comparators.Responsibilities(ctx, cv.Experience, job.Responsibilities)
		},
		aspects.Certifications: func(ctx context.Context) aspects.Result {
			return m.comparators.Certifications(ctx, aspects.CertificationInput{
				Candidate:       cv.CertificationNames(),
				Required:        job.Certifications,
				CandidateSkills: cv.TechnicalSkills,
				JobSkills:       job.TechnicalSkills,
			})
		},
		aspects.SoftSkills: func(ctx context.Context) aspects.Result {
			return m.comparators.SoftSkills(ctx, cv.SoftSkills, job.SoftSkills)
		},
		aspects.Languages: func(ctx context.Context) aspects.Result {
			return m.comparators.Languages(ctx, cv.Languages, job.Languages)
		},
		aspects.Location: func(ctx context.Context) aspects.Result {
			return m.comparators.Location(ctx, cv.CurrentLocation(), job.Location)
		},
	}

	var (
		mu      sync.Mutex
		results = make(aspects.Results, len(comparisons))
	)

	g, gctx := errgroup.WithContext(ctx)
	for aspect, compare := range comparisons {
		g.Go(func() error {
			res := compare(gctx)

			mu.Lock()
			results[aspect] = res
			mu.Unlock()

			return nil
		})
	}
	// Comparisons absorb their own failures.
	_ = g.Wait()

	return results
}

// Compare runs every comparison and aggregates it with the default weights
// overridden by the sparse overrides map.
func (m *Matcher) Compare(ctx context.Context, cv *profile.CandidateProfile, job *profile.JobRequirement, overrides map[string]float64) *Report {
	start := time.Now()
	log := m.logger.With(logger.ComparisonFields(cv.Name(), job.Title())...)

	results := m.RunAll(ctx, cv, job)
	breakdown := scoring.Calculate(results, scoring.Resolve(overrides, log))

	report := &Report{
		Candidate: cv.Name(),
		JobTitle:  job.Title(),
		Company:   job.Company(),
		Results:   results,
		Breakdown: breakdown,
		Duration:  time.Since(start),
	}

	fields := []zap.Field{
		zap.Float64("final_score", breakdown.FinalScore),
		zap.String("confidence", string(breakdown.Confidence)),
		zap.Int("ignored_aspects", len(breakdown.IgnoredAspects)),
		zap.Duration("duration", report.Duration),
	}
	if breakdown.Degraded {
		log.Warn("comparison finished without oracle judgments", fields...)
	} else {
		log.Info("comparison finished", fields...)
	}

	return report
}
