// Package profile holds the structured résumé and job posting compared by the matcher.
package profile

import "strings"

type Personal struct {
	Name     string `json:"name" mapstructure:"name"`
	Email    string `json:"email,omitempty" mapstructure:"email"`
	Phone    string `json:"phone,omitempty" mapstructure:"phone"`
	Location string `json:"location,omitempty" mapstructure:"location"`
}

type Education struct {
	Degree      string `json:"degree" mapstructure:"degree"`
	Institution string `json:"institution" mapstructure:"institution"`
	Year        string `json:"year,omitempty" mapstructure:"year"`
	Field       string `json:"field,omitempty" mapstructure:"field"`
}

type Experience struct {
	Position    string `json:"position" mapstructure:"position"`
	Company     string `json:"company" mapstructure:"company"`
	Duration    string `json:"duration,omitempty" mapstructure:"duration"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

type Certification struct {
	Name   string `json:"name" mapstructure:"name" validate:"required"`
	Issuer string `json:"issuer,omitempty" mapstructure:"issuer"`
	Year   string `json:"year,omitempty" mapstructure:"year"`
}

// CandidateProfile is a structured résumé. It is treated as read-only once loaded.
type CandidateProfile struct {
	Personal        Personal          `json:"personal" mapstructure:"personal"`
	Education       []Education       `json:"education" mapstructure:"education"`
	Experience      []Experience      `json:"experience" mapstructure:"experience"`
	TechnicalSkills []string          `json:"technical_skills" mapstructure:"technical_skills"`
	SoftSkills      []string          `json:"soft_skills" mapstructure:"soft_skills"`
	Certifications  []Certification   `json:"certifications" mapstructure:"certifications" validate:"dive"`
	Languages       map[string]string `json:"languages" mapstructure:"languages" validate:"dive,keys,required,endkeys,max=64"`
	Location        string            `json:"location,omitempty" mapstructure:"location"`
}

// Name returns the candidate name or a placeholder.
func (c *CandidateProfile) Name() string {
	if c == nil || strings.TrimSpace(c.Personal.Name) == "" {
		return "unknown candidate"
	}
	return strings.TrimSpace(c.Personal.Name)
}

// CurrentLocation prefers the top-level location and falls back to the personal block.
func (c *CandidateProfile) CurrentLocation() string {
	if c == nil {
		return ""
	}
	if loc := strings.TrimSpace(c.Location); loc != "" {
		return loc
	}
	return strings.TrimSpace(c.Personal.Location)
}

type BasicInfo struct {
	JobTitle    string `json:"job_title" mapstructure:"job_title"`
	CompanyName string `json:"company_name" mapstructure:"company_name"`
}

// JobRequirement is a structured job posting.
type JobRequirement struct {
	BasicInfo        BasicInfo         `json:"basic_info" mapstructure:"basic_info"`
	Education        string            `json:"education" mapstructure:"education"`
	Experience       string            `json:"experience" mapstructure:"experience"`
	Responsibilities []string          `json:"responsibilities" mapstructure:"responsibilities"`
	TechnicalSkills  []string          `json:"technical_skills" mapstructure:"technical_skills"`
	SoftSkills       []string          `json:"soft_skills" mapstructure:"soft_skills"`
	Certifications   []string          `json:"certifications" mapstructure:"certifications"`
	Languages        map[string]string `json:"languages" mapstructure:"languages" validate:"dive,keys,required,endkeys,max=64"`
	Location         string            `json:"location" mapstructure:"location"`
}

// Title returns the job title or a placeholder.
func (j *JobRequirement) Title() string {
	if j == nil || strings.TrimSpace(j.BasicInfo.JobTitle) == "" {
		return "untitled job"
	}
	return strings.TrimSpace(j.BasicInfo.JobTitle)
}

func (j *JobRequirement) Company() string {
	if j == nil {
		return ""
	}
	return strings.TrimSpace(j.BasicInfo.CompanyName)
}
