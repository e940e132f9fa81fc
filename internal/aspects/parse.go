package aspects

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// ErrNoJSON is returned when an oracle reply contains no JSON object.
var ErrNoJSON = errors.New("no json object in oracle reply")

// shape is the reply layout expected for a task.
type shape int

const (
	shapePair shape = iota
	shapeList
)

const (
	pairPromptSchema = `{"score": <number between 0 and 1>, "reason": "<one or two sentences>"}`
	listPromptSchema = `{"score": <number between 0 and 1>, "matched": ["<requirement satisfied>"], "missing": ["<requirement not satisfied>"], "reason": "<one or two sentences>"}`

	pairJSONSchema = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": ["number", "string"]},
    "reason": {"type": ["string", "null"]}
  }
}`
	listJSONSchema = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": ["number", "string"]},
    "reason": {"type": ["string", "null"]},
    "matched": {"type": ["array", "string", "null"]},
    "missing": {"type": ["array", "string", "null"]}
  }
}`
)

var (
	pairValidator = mustSchema(pairJSONSchema)
	listValidator = mustSchema(listJSONSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile reply schema: %v", err))
	}
	return schema
}

func (s shape) promptSchema() string {
	if s == shapeList {
		return listPromptSchema
	}
	return pairPromptSchema
}

func (s shape) validator() *gojsonschema.Schema {
	if s == shapeList {
		return listValidator
	}
	return pairValidator
}

// ValidReply reports whether raw holds a reply any comparator can use.
func ValidReply(raw string) bool {
	_, err := parseReply(raw, shapeList)
	return err == nil
}

// parseReply turns a raw oracle reply into a Result with a score clamped to [0,1].
func parseReply(raw string, s shape) (Result, error) {
	doc, err := extractJSON(raw)
	if err != nil {
		return Result{}, err
	}

	validation, err := s.validator().Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return Result{}, fmt.Errorf("validate reply: %w", err)
	}
	if !validation.Valid() {
		msgs := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			msgs = append(msgs, e.String())
		}
		return Result{}, fmt.Errorf("reply does not match schema: %s", strings.Join(msgs, "; "))
	}

	score, err := coerceScore(gjson.Get(doc, "score"))
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Score:  clamp01(score),
		Reason: strings.TrimSpace(gjson.Get(doc, "reason").String()),
		Source: SourceOracle,
	}

	if s == shapeList {
		res.Matched = stringList(gjson.Get(doc, "matched"))
		res.Missing = stringList(gjson.Get(doc, "missing"))
	}

	return res, nil
}

// extractJSON strips code fences and surrounding prose, returning the first
// complete JSON object in the reply.
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}

	if !strings.Contains(raw, "{") {
		return "", ErrNoJSON
	}

	for i := strings.Index(raw, "{"); i != -1; {
		var doc json.RawMessage
		if err := json.NewDecoder(strings.NewReader(raw[i:])).Decode(&doc); err == nil {
			return string(doc), nil
		}

		next := strings.Index(raw[i+1:], "{")
		if next == -1 {
			break
		}
		i += next + 1
	}

	return "", fmt.Errorf("%w: malformed object", ErrNoJSON)
}

func coerceScore(v gjson.Result) (float64, error) {
	var (
		f   float64
		err error
	)

	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		s := strings.TrimSuffix(strings.TrimSpace(v.Str), "%")
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("score %q is not a number", v.Str)
		}
		if strings.HasSuffix(strings.TrimSpace(v.Str), "%") {
			f /= 100
		}
	default:
		return 0, fmt.Errorf("score has unexpected type %s", v.Type)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("score is not finite")
	}

	return f, nil
}

func stringList(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}

	if v.Type == gjson.String {
		if s := strings.TrimSpace(v.Str); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	v.ForEach(func(_, item gjson.Result) bool {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
		return true
	})

	return out
}
