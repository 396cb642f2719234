package executor

import (
	"strings"
	"testing"
)

func TestBuildPromptModes(t *testing.T) {
	content := "Build a rate limiter.\n\nAcceptance: 100 req/s sustained."

	normal := BuildPrompt("limiter", content, ModeNormal)
	if !strings.Contains(normal, "acceptance criteria") {
		t.Errorf("normal prompt missing framing: %q", normal)
	}
	if !strings.Contains(normal, content) || !strings.Contains(normal, "# limiter") {
		t.Errorf("normal prompt missing content or name")
	}

	plan := BuildPrompt("limiter", content, ModePlanOnly)
	if !strings.Contains(plan, "Do not implement") {
		t.Errorf("plan prompt allows implementation: %q", plan)
	}

	dry := BuildPrompt("limiter", content, ModeDryRun)
	if !strings.Contains(dry, taskCountMarker) {
		t.Errorf("dry-run prompt missing count marker: %q", dry)
	}
	if !strings.Contains(dry, "Do not implement") {
		t.Errorf("dry-run prompt allows implementation")
	}
}

func TestBuildFeedbackPromptEmbedsRawErrors(t *testing.T) {
	raw := "command failed: go test ./...\nexit status 1\n--- FAIL: TestX"
	got := BuildFeedbackPrompt(raw)
	if !strings.Contains(got, raw) {
		t.Errorf("feedback prompt dropped verifier output: %q", got)
	}
	if !strings.Contains(got, "Verification failed") {
		t.Errorf("feedback prompt missing framing")
	}
}

func TestParseTaskCount(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int
	}{
		{"marker line", "1. do this\n2. do that\n\nTASK COUNT: 7\n", 7},
		{"marker case insensitive", "plan follows\ntask count: 3", 3},
		{"numbered list fallback", "1. first\n2. second\n3) third\n", 3},
		{"no structure", "I would refactor the parser.", 1},
		{"zero marker ignored", "TASK COUNT: 0\n1. only item", 1},
		{"empty", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTaskCount(tt.output); got != tt.want {
				t.Errorf("ParseTaskCount(%q) = %d, want %d", tt.output, got, tt.want)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if ModeNormal.String() != "normal" || ModePlanOnly.String() != "plan" || ModeDryRun.String() != "dry-run" {
		t.Error("mode names wrong")
	}
}
