package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// LoadCandidate reads a résumé JSON file.
func LoadCandidate(path string) (*CandidateProfile, error) {
	raw, err := readJSON(path)
	if err != nil {
		return nil, err
	}

	cv, err := DecodeCandidate(raw)
	if err != nil {
		return nil, fmt.Errorf("decode candidate %s: %w", path, err)
	}

	return cv, nil
}

// LoadJob reads a job posting JSON file.
func LoadJob(path string) (*JobRequirement, error) {
	raw, err := readJSON(path)
	if err != nil {
		return nil, err
	}

	job, err := DecodeJob(raw)
	if err != nil {
		return nil, fmt.Errorf("decode job %s: %w", path, err)
	}

	return job, nil
}

// DecodeCandidate converts loosely typed data (decoded JSON, a request body)
// into a normalised and validated CandidateProfile.
func DecodeCandidate(raw any) (*CandidateProfile, error) {
	var cv CandidateProfile
	if err := decode(raw, &cv); err != nil {
		return nil, err
	}

	cv.normalize()

	if err := Validate(&cv); err != nil {
		return nil, err
	}

	return &cv, nil
}

// DecodeJob converts loosely typed data into a normalised and validated JobRequirement.
func DecodeJob(raw any) (*JobRequirement, error) {
	var job JobRequirement
	if err := decode(raw, &job); err != nil {
		return nil, err
	}

	job.normalize()

	if err := Validate(&job); err != nil {
		return nil, err
	}

	return &job, nil
}

func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return raw, nil
}

func decode(raw any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			languagesHook,
			certificationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}

	return decoder.Decode(raw)
}

var (
	languagesType     = reflect.TypeOf(map[string]string{})
	certificationType = reflect.TypeOf(Certification{})
	stringType        = reflect.TypeOf("")
)

// languagesHook accepts languages given as a list of names or of
// {language|name, level} objects in addition to the canonical mapping.
func languagesHook(from, to reflect.Type, data any) (any, error) {
	if to != languagesType || from.Kind() != reflect.Slice {
		return data, nil
	}

	items, ok := data.([]any)
	if !ok {
		return data, nil
	}

	result := make(map[string]string, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			result[v] = ""
		case map[string]any:
			name := firstString(v, "language", "name", "lang")
			if name == "" {
				continue
			}
			result[name] = firstString(v, "level", "proficiency")
		}
	}

	return result, nil
}

// certificationHook handles certifications given as plain strings on the
// candidate side and as objects on the job side.
func certificationHook(from, to reflect.Type, data any) (any, error) {
	switch {
	case to == certificationType && from.Kind() == reflect.String:
		return map[string]any{"name": data}, nil
	case to == stringType && from.Kind() == reflect.Map:
		if v, ok := data.(map[string]any); ok {
			return firstString(v, "name", "title"), nil
		}
	}

	return data, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" && v != nil {
				return s
			}
		}
	}
	return ""
}

func (c *CandidateProfile) normalize() {
	c.TechnicalSkills = cleanList(c.TechnicalSkills)
	c.SoftSkills = cleanList(c.SoftSkills)
	c.Languages = cleanLanguages(c.Languages)

	certs := c.Certifications[:0]
	for _, cert := range c.Certifications {
		cert.Name = strings.TrimSpace(cert.Name)
		if cert.Name == "" {
			continue
		}
		certs = append(certs, cert)
	}
	c.Certifications = certs
}

func (j *JobRequirement) normalize() {
	j.Responsibilities = cleanList(j.Responsibilities)
	j.TechnicalSkills = cleanList(j.TechnicalSkills)
	j.SoftSkills = cleanList(j.SoftSkills)
	j.Certifications = cleanList(j.Certifications)
	j.Languages = cleanLanguages(j.Languages)
	j.Education = strings.TrimSpace(j.Education)
	j.Experience = strings.TrimSpace(j.Experience)
	j.Location = strings.TrimSpace(j.Location)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func cleanLanguages(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for name, level := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(level)
	}
	return out
}
