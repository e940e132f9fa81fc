package aspects

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		shape  shape
		score  float64
		reason string
	}{
		{name: "plain", raw: `{"score": 0.8, "reason": "good"}`, shape: shapePair, score: 0.8, reason: "good"},
		{name: "code fence", raw: "```json\n{\"score\": 0.6, \"reason\": \"ok\"}\n```", shape: shapePair, score: 0.6, reason: "ok"},
		{name: "surrounding prose", raw: "Here is my answer:\n{\"score\": 0.3}\nHope it helps.", shape: shapePair, score: 0.3},
		{name: "string score", raw: `{"score": "0.75", "reason": "r"}`, shape: shapePair, score: 0.75, reason: "r"},
		{name: "percentage string", raw: `{"score": "40%"}`, shape: shapePair, score: 0.4},
		{name: "clamped high", raw: `{"score": 7}`, shape: shapePair, score: 1},
		{name: "clamped negative", raw: `{"score": -1}`, shape: shapePair, score: 0},
		{name: "null reason", raw: `{"score": 0.5, "reason": null}`, shape: shapeList, score: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := parseReply(tt.raw, tt.shape)
			require.NoError(t, err)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, SourceOracle, res.Source)
		})
	}
}

func TestParseReplyListFields(t *testing.T) {
	res, err := parseReply(`{"score": 0.5, "matched": ["Go", " "], "missing": "Kubernetes", "reason": "half"}`, shapeList)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, res.Matched)
	assert.Equal(t, []string{"Kubernetes"}, res.Missing)
}

func TestParseReplyRejectsGarbage(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no json":         "I cannot answer that.",
		"malformed":       `{"score": 0.5,,}`,
		"missing score":   `{"reason": "no score"}`,
		"wrong type":      `{"score": [1]}`,
		"non numeric":     `{"score": "high"}`,
		"matched objects": `{"score": 0.5, "matched": {"a": 1}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := parseReply(raw, shapeList)
			assert.Error(t, err)
		})
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := extractJSON("``` ```")
	assert.True(t, errors.Is(err, ErrNoJSON))
}

func TestExtractJSONIgnoresBracesInProse(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"after":  `Here is my answer: {"score": 0.8, "reason": "close"} (scores use the {0..1} scale)`,
		"before": `Using {0..1} as the scale: {"score": 0.8, "reason": "close"}`,
		"fenced": "```json\n{\"score\": 0.8, \"reason\": \"close\"}\n```\nNote: {ignored}",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res, err := parseReply(raw, shapePair)
			require.NoError(t, err)
			assert.Equal(t, 0.8, res.Score)
			assert.Equal(t, "close", res.Reason)
		})
	}
}

func TestValidReply(t *testing.T) {
	assert.True(t, ValidReply(`Sure: {"score": "0.7"}`))
	assert.True(t, ValidReply(`{"score": 1, "matched": ["Go"], "missing": []}`))
	assert.False(t, ValidReply("Sorry, I cannot judge this."))
	assert.False(t, ValidReply(`{"reason": "no score"}`))
}
