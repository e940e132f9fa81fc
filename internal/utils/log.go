package utils

import "strings"

// TruncateForLog folds prompts and oracle replies onto one line and cuts them
// to limit runes, marking the cut with "...". A non-positive limit hides the
// text entirely.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	preview := strings.Join(strings.Fields(s), " ")

	n := 0
	for i := range preview {
		if n == limit {
			return preview[:i] + "..."
		}
		n++
	}

	return preview
}
