package ranking

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/profile"
)

// DefaultConcurrency bounds how many candidates are compared at once.
const DefaultConcurrency = 4

// Entry is a candidate waiting to be compared.
type Entry struct {
	ID      string
	Profile *profile.CandidateProfile
}

// Candidate is a compared candidate.
type Candidate struct {
	ID     string
	Report *matching.Report
}

// Score returns the final score of the candidate's comparison.
func (c *Candidate) Score() float64 {
	if c == nil || c.Report == nil || c.Report.Breakdown == nil {
		return 0
	}
	return c.Report.Breakdown.FinalScore
}

type Candidates struct {
	Items []*Candidate
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Keep retains the candidates matching keep and returns the IDs of the dropped ones.
func (c *Candidates) Keep(keep func(*Candidate) bool) []string {
	var (
		kept    = c.Items[:0]
		dropped []string
	)
	for _, item := range c.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item.ID)
	}
	c.Items = kept
	return dropped
}

// SortByScore orders candidates by final score, best first. Ties keep ID order.
func (c *Candidates) SortByScore() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a, b := c.Items[i], c.Items[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		return a.ID < b.ID
	})
}

// CompareAll compares every entry with the job using at most concurrency
// comparisons at a time. The result keeps the order of entries.
func CompareAll(ctx context.Context, logger *zap.Logger, m *matching.Matcher, job *profile.JobRequirement, entries []Entry, overrides map[string]float64, concurrency int) *Candidates {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	items := make([]*Candidate, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			items[i] = &Candidate{
				ID:     entry.ID,
				Report: m.Compare(gctx, entry.Profile, job, overrides),
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("candidates compared",
		zap.Int("candidates", len(items)),
		zap.String("job", job.Title()),
	)

	return &Candidates{Items: items}
}
