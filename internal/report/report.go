// Package report renders comparison reports and rankings for terminals.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spigell/cv-matcher/internal/aspects"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/ranking"
)

const rule = "=================================================="

// Print writes a human readable comparison report.
func Print(w io.Writer, r *matching.Report) error {
	if r == nil || r.Breakdown == nil {
		return fmt.Errorf("empty report")
	}
	b := r.Breakdown

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "COMPARISON RESULTS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Candidate: %s\n", r.Candidate)
	fmt.Fprintf(w, "Position:  %s\n", position(r.JobTitle, r.Company))
	fmt.Fprintf(w, "Final score: %.3f (%.1f%%)\n", b.FinalScore, b.Percentage())
	fmt.Fprintf(w, "Confidence: %s\n", b.Confidence)
	if b.Degraded {
		fmt.Fprintln(w, "WARNING: the judgment oracle was unavailable, every aspect was scored heuristically")
	}
	fmt.Fprintf(w, "Weight used: %.3f of %.3f\n", b.UsedWeight, b.TotalWeight)
	if len(b.IgnoredAspects) > 0 {
		fmt.Fprintf(w, "Ignored aspects: %s\n", join(b.IgnoredAspects))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASPECT\tSCORE\tWEIGHT\tCONTRIBUTION\tSOURCE\tREASON")
	for _, a := range aspects.All {
		line := b.Aspects[a]
		res := r.Results[a]

		score := fmt.Sprintf("%.3f", line.Score)
		contribution := fmt.Sprintf("%.3f", line.Contribution)
		if line.Ignored {
			score, contribution = "n/a", "-"
		}

		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\t%s\t%s\n",
			a, score, line.Weight, contribution, orDash(string(res.Source)), orDash(res.Reason))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, a := range aspects.All {
		res := r.Results[a]
		if len(res.Matched) == 0 && len(res.Missing) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", a)
		if len(res.Matched) > 0 {
			fmt.Fprintf(w, "  matched: %s\n", strings.Join(res.Matched, ", "))
		}
		if len(res.Missing) > 0 {
			fmt.Fprintf(w, "  missing: %s\n", strings.Join(res.Missing, ", "))
		}
	}

	_, err := fmt.Fprintf(w, "\nProcessed in %s\n", r.Duration.Round(time.Millisecond))
	return err
}

// PrintRanking writes the pipeline outcome followed by the ranked candidates.
func PrintRanking(w io.Writer, job string, outcomes []ranking.Outcome, c *ranking.Candidates) error {
	fmt.Fprintf(w, "Ranking for %s\n\n", job)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILTER\tINITIAL\tDROPPED\tLEFT")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", o.Name, o.Initial, o.Dropped, o.Left)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if c.Len() == 0 {
		_, err := fmt.Fprintln(w, "No candidates left.")
		return err
	}

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCANDIDATE\tSOURCE\tSCORE\tCONFIDENCE\tIGNORED")
	for i, cand := range c.Items {
		name, confidence, ignored := "-", "-", 0
		if cand.Report != nil {
			name = cand.Report.Candidate
			if b := cand.Report.Breakdown; b != nil {
				confidence = string(b.Confidence)
				ignored = len(b.IgnoredAspects)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%s\t%d\n", i+1, name, cand.ID, cand.Score(), confidence, ignored)
	}
	return tw.Flush()
}

func position(title, company string) string {
	if company == "" {
		return title
	}
	return title + " at " + company
}

func join(list []aspects.Aspect) string {
	parts := make([]string, 0, len(list))
	for _, a := range list {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
