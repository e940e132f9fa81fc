package ai

import (
	_ "embed"
	"strings"
)

//go:embed prompt.md
var systemTemplate string

//go:embed message.md
var messageTemplate string

const notSpecified = "(not specified)"

// RenderPrompt turns a request into a system instruction and a user message.
func RenderPrompt(req Request) (system, message string) {
	replacer := strings.NewReplacer(
		"{{TASK}}", string(req.Task),
		"{{INSTRUCTIONS}}", orPlaceholder(req.Instructions),
		"{{CANDIDATE}}", orPlaceholder(req.Candidate),
		"{{JOB}}", orPlaceholder(req.Job),
		"{{SCHEMA}}", orPlaceholder(req.Schema),
	)

	return strings.TrimSpace(systemTemplate), strings.TrimSpace(replacer.Replace(messageTemplate))
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return notSpecified
	}
	return s
}
