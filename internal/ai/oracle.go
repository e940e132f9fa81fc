// Package ai defines the judgment oracle consulted by the aspect comparators
// and a prompt-based adapter over any text generator.
package ai

import (
	"context"
	"errors"
)

// Task identifies the comparison the oracle is asked to judge.
type Task string

const (
	TaskTechnicalSkills        Task = "technical_skills"
	TaskSoftSkills             Task = "soft_skills"
	TaskExperience             Task = "experience"
	TaskEducation              Task = "education"
	TaskResponsibilities       Task = "responsibilities"
	TaskCertifications         Task = "certifications"
	TaskCertificationsBySkills Task = "certifications_by_skills"
	TaskLanguages              Task = "languages"
	TaskLocation               Task = "location"
)

// ErrUnavailable is returned by oracles that cannot answer at all.
var ErrUnavailable = errors.New("judgment oracle is not available")

// Request is one comparison handed to the oracle.
type Request struct {
	Task Task
	// Instructions describe how to compare the two sides.
	Instructions string
	// Schema is the JSON shape the reply must follow.
	Schema    string
	Candidate string
	Job       string
}

// Oracle judges a candidate-side text against a job-side text and replies
// with raw text expected to contain a JSON document.
type Oracle interface {
	Judge(ctx context.Context, req Request) (string, error)
}

// Unavailable is an Oracle that always fails. Comparisons run against it use
// only the deterministic fallbacks.
type Unavailable struct{}

func (Unavailable) Judge(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}
