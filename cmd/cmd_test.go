package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/ranking"
)

func TestMergeWeights(t *testing.T) {
	got, err := mergeWeights(
		map[string]float64{"Experience": 0.5, "location": 0.1},
		map[string]string{"location": " 0.2 ", "languages": "0"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]float64{"experience": 0.5, "location": 0.2, "languages": 0}
	if len(got) != len(want) {
		t.Fatalf("unexpected weights: %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("weight %s: expected %v, got %v", k, v, got[k])
		}
	}
}

func TestMergeWeightsEmpty(t *testing.T) {
	got, err := mergeWeights(nil, nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil weights, got %v (%v)", got, err)
	}
}

func TestMergeWeightsRejectsGarbage(t *testing.T) {
	if _, err := mergeWeights(nil, map[string]string{"experience": "lots"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPickFile(t *testing.T) {
	dir := t.TempDir()
	only := filepath.Join(dir, "ana.json")
	if err := os.WriteFile(only, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := pickFile(only, "")
	if err != nil || got != only {
		t.Fatalf("expected the file itself, got %q (%v)", got, err)
	}

	got, err = pickFile(dir, "")
	if err != nil || got != only {
		t.Fatalf("expected the single json file, got %q (%v)", got, err)
	}

	if _, err := pickFile(t.TempDir(), ""); err == nil {
		t.Fatal("expected error for a directory without json files")
	}
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	for _, provider := range []string{"", "none", " NONE "} {
		g, err := newGenerator(ctx, &AIConfig{Provider: provider}, log)
		if err != nil || g != nil {
			t.Fatalf("provider %q: expected no generator, got %v (%v)", provider, g, err)
		}
	}

	if _, err := newGenerator(ctx, &AIConfig{Provider: "gpt-local"}, log); err == nil || !strings.Contains(err.Error(), "unknown ai provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "")
	if _, err := newGenerator(ctx, &AIConfig{Provider: "openrouter"}, log); err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}

	g, err := newGenerator(ctx, &AIConfig{Provider: "openrouter", OpenRouter: &OpenRouterConfig{APIKey: "k", Model: "m"}}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != "m" {
		t.Fatalf("unexpected model %q", g.Model())
	}
}

func TestNewOracleWithoutProvider(t *testing.T) {
	oracle, closer, err := newOracle(context.Background(), &Config{AI: &AIConfig{Provider: "none"}}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer()

	if _, ok := oracle.(ai.Unavailable); !ok {
		t.Fatalf("expected the unavailable oracle, got %T", oracle)
	}
}

func TestRankingConfigKeepsDegradedWithoutProvider(t *testing.T) {
	tests := []struct {
		name      string
		ai        *AIConfig
		allow     bool
		wantAllow bool
		wantWarn  int
	}{
		{name: "no ai section", ai: nil, wantAllow: true, wantWarn: 1},
		{name: "provider none", ai: &AIConfig{Provider: "None"}, wantAllow: true, wantWarn: 1},
		{name: "already allowed", ai: &AIConfig{Provider: "none"}, allow: true, wantAllow: true},
		{name: "gemini", ai: &AIConfig{Provider: "gemini"}, wantAllow: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)
			config := &Config{AI: tt.ai, Ranking: ranking.Config{AllowDegraded: tt.allow, Top: 5}}

			got := rankingConfig(config, zap.New(core))

			if got.AllowDegraded != tt.wantAllow {
				t.Fatalf("expected allow-degraded %v, got %v", tt.wantAllow, got.AllowDegraded)
			}
			if got.Top != 5 {
				t.Fatalf("other ranking settings must be kept, got %+v", got)
			}
			if observed.Len() != tt.wantWarn {
				t.Fatalf("expected %d warnings, got %d", tt.wantWarn, observed.Len())
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	if !strings.HasPrefix(buf.String(), "cv-matcher version: ") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
