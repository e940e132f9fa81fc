package ranking

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/cv-matcher/internal/scoring"
)

// Config holds the ranking thresholds.
type Config struct {
	MinimumScore  float64 `mapstructure:"minimum-score"`
	AllowDegraded bool    `mapstructure:"allow-degraded"`
	// MaxIgnored drops candidates with more ignored aspects. Negative disables the check.
	MaxIgnored int `mapstructure:"max-ignored"`
	Top        int `mapstructure:"top"`
}

// Steps builds the filter pipeline in its fixed order.
func Steps(cfg Config) []Filter {
	steps := []Filter{
		NewMinimumScore(cfg.MinimumScore),
		NewConfidence(cfg.AllowDegraded),
		NewCoverage(cfg.MaxIgnored),
		NewTop(cfg.Top),
	}
	if cfg.MaxIgnored < 0 {
		DisableByName(steps, coverageName, "max-ignored is negative")
	}
	return steps
}

type minimumScoreFilter struct {
	minimum float64
}

// NewMinimumScore creates a filter that drops candidates scoring below minimum.
func NewMinimumScore(minimum float64) Filter {
	return &minimumScoreFilter{minimum: minimum}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(string) {}

func (f *minimumScoreFilter) IsEnabled() bool { return true }

func (f *minimumScoreFilter) Validate() error {
	if f.minimum < 0 || f.minimum > 1 {
		return fmt.Errorf("minimum score must be within [0,1], got %v", f.minimum)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	dropped := c.Keep(func(cand *Candidate) bool {
		return cand.Score() >= f.minimum
	})
	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"minimum_score": fmt.Sprintf("%.2f", f.minimum)},
	}
}

type confidenceFilter struct {
	allowDegraded bool
}

// NewConfidence creates a filter that drops candidates scored without any oracle judgment.
func NewConfidence(allowDegraded bool) Filter {
	return &confidenceFilter{allowDegraded: allowDegraded}
}

func (f *confidenceFilter) Name() string { return "confidence" }

func (f *confidenceFilter) Disable(string) {}

func (f *confidenceFilter) IsEnabled() bool { return true }

func (f *confidenceFilter) Validate() error { return nil }

func (f *confidenceFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.allowDegraded {
		return c, Step{Initial: initial, Left: initial}, nil
	}

	dropped := c.Keep(func(cand *Candidate) bool {
		return cand.Report == nil || cand.Report.Breakdown == nil ||
			cand.Report.Breakdown.Confidence != scoring.ConfidenceHeuristic
	})
	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}

func (f *confidenceFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"allow_degraded": strconv.FormatBool(f.allowDegraded)},
	}
}

const coverageName = "coverage"

type coverageFilter struct {
	maxIgnored int
	disabled   bool
	reason     string
}

// NewCoverage creates a filter that drops candidates whose score rests on too few aspects.
func NewCoverage(maxIgnored int) Filter {
	return &coverageFilter{maxIgnored: maxIgnored}
}

func (f *coverageFilter) Name() string { return coverageName }

func (f *coverageFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *coverageFilter) IsEnabled() bool { return !f.disabled }

func (f *coverageFilter) Validate() error {
	if f.maxIgnored < 0 {
		return fmt.Errorf("max ignored aspects must not be negative")
	}
	return nil
}

func (f *coverageFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	dropped := c.Keep(func(cand *Candidate) bool {
		if cand.Report == nil || cand.Report.Breakdown == nil {
			return false
		}
		return len(cand.Report.Breakdown.IgnoredAspects) <= f.maxIgnored
	})
	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}

func (f *coverageFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"max_ignored": strconv.Itoa(f.maxIgnored)},
	}
}

type topFilter struct {
	top int
}

// NewTop creates a filter that sorts candidates by score and keeps the best top.
// Zero keeps everyone.
func NewTop(top int) Filter {
	return &topFilter{top: top}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(string) {}

func (f *topFilter) IsEnabled() bool { return true }

func (f *topFilter) Validate() error {
	if f.top < 0 {
		return fmt.Errorf("top must not be negative")
	}
	return nil
}

func (f *topFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	c.SortByScore()
	if f.top > 0 && c.Len() > f.top {
		c.Items = c.Items[:f.top]
	}
	return c, Step{Initial: initial, Dropped: initial - c.Len(), Left: c.Len()}, nil
}

func (f *topFilter) Status() Status {
	details := map[string]string{"top": "all"}
	if f.top > 0 {
		details["top"] = strconv.Itoa(f.top)
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
