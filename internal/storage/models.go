package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/profile"
)

type CV struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);index" json:"name"`
	Email     string         `gorm:"type:varchar(255)" json:"email,omitempty"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

func (c *CV) TableName() string { return "cvs" }

func (c *CV) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Profile decodes the stored résumé.
func (c *CV) Profile() (*profile.CandidateProfile, error) {
	raw, err := decodeData(c.Data)
	if err != nil {
		return nil, fmt.Errorf("cv %s: %w", c.ID, err)
	}
	return profile.DecodeCandidate(raw)
}

// NewCV stores a candidate profile.
func NewCV(p *profile.CandidateProfile) (*CV, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode cv: %w", err)
	}
	return &CV{Name: p.Name(), Email: p.Personal.Email, Data: data}, nil
}

type Job struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string         `gorm:"type:varchar(255);index" json:"title"`
	Company   string         `gorm:"type:varchar(255)" json:"company,omitempty"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

func (j *Job) TableName() string { return "jobs" }

func (j *Job) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Requirement decodes the stored job posting.
func (j *Job) Requirement() (*profile.JobRequirement, error) {
	raw, err := decodeData(j.Data)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", j.ID, err)
	}
	return profile.DecodeJob(raw)
}

// NewJob stores a job requirement.
func NewJob(r *profile.JobRequirement) (*Job, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}
	return &Job{Title: r.Title(), Company: r.Company(), Data: data}, nil
}

// Analysis is one persisted comparison.
type Analysis struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CVID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"cv_id"`
	JobID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	Score          float64        `gorm:"index" json:"score"`
	Confidence     string         `gorm:"type:varchar(16)" json:"confidence"`
	Breakdown      datatypes.JSON `gorm:"type:jsonb" json:"breakdown"`
	Results        datatypes.JSON `gorm:"type:jsonb" json:"results"`
	ProcessingTime float64        `json:"processing_time"`
	CreatedAt      time.Time      `json:"created_at"`

	CV  *CV  `gorm:"foreignKey:CVID;constraint:OnDelete:CASCADE" json:"cv,omitempty"`
	Job *Job `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"job,omitempty"`
}

func (a *Analysis) TableName() string { return "analyses" }

func (a *Analysis) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NewAnalysis captures a comparison report for persistence.
func NewAnalysis(cvID, jobID uuid.UUID, r *matching.Report) (*Analysis, error) {
	breakdown, err := json.Marshal(r.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("encode breakdown: %w", err)
	}
	results, err := json.Marshal(r.Results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}

	return &Analysis{
		CVID:           cvID,
		JobID:          jobID,
		Score:          r.Breakdown.FinalScore,
		Confidence:     string(r.Breakdown.Confidence),
		Breakdown:      breakdown,
		Results:        results,
		ProcessingTime: r.Duration.Seconds(),
	}, nil
}

// Stats summarizes the stored data.
type Stats struct {
	CVs          int64   `json:"total_cvs"`
	Jobs         int64   `json:"total_jobs"`
	Analyses     int64   `json:"total_analyses"`
	AverageScore float64 `json:"average_score"`
}

func decodeData(data datatypes.JSON) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	return raw, nil
}
