package profile

import (
	"fmt"
	"sort"
	"strings"
)

// EducationText renders education entries one per line.
func (c *CandidateProfile) EducationText() string {
	lines := make([]string, 0, len(c.Education))
	for _, e := range c.Education {
		line := strings.TrimSpace(e.Degree)
		if f := strings.TrimSpace(e.Field); f != "" {
			line = joinNonEmpty(" in ", line, f)
		}
		line = joinNonEmpty(", ", line, strings.TrimSpace(e.Institution))
		if y := strings.TrimSpace(e.Year); y != "" {
			line += fmt.Sprintf(" (%s)", y)
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, "- "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// ExperienceText renders the work history including descriptions, which is
// where responsibilities are inferred from.
func (c *CandidateProfile) ExperienceText() string {
	lines := make([]string, 0, len(c.Experience))
	for _, e := range c.Experience {
		head := joinNonEmpty(" at ", strings.TrimSpace(e.Position), strings.TrimSpace(e.Company))
		if d := strings.TrimSpace(e.Duration); d != "" {
			head += fmt.Sprintf(" (%s)", d)
		}
		if desc := strings.TrimSpace(e.Description); desc != "" {
			head = joinNonEmpty(": ", head, desc)
		}
		if head = strings.TrimSpace(head); head != "" {
			lines = append(lines, "- "+head)
		}
	}
	return strings.Join(lines, "\n")
}

// CertificationNames returns certification names with the issuer when known.
func (c *CandidateProfile) CertificationNames() []string {
	names := make([]string, 0, len(c.Certifications))
	for _, cert := range c.Certifications {
		name := strings.TrimSpace(cert.Name)
		if name == "" {
			continue
		}
		if issuer := strings.TrimSpace(cert.Issuer); issuer != "" {
			name = fmt.Sprintf("%s (%s)", name, issuer)
		}
		names = append(names, name)
	}
	return names
}

// LanguagesText renders a language mapping in a stable order.
func LanguagesText(langs map[string]string) string {
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if level := langs[name]; level != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", name, level))
			continue
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}

// ListText renders a list of strings as bullet lines.
func ListText(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

func joinNonEmpty(sep, a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}
