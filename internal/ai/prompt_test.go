package ai

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	diff := "diff --git a/x.go b/x.go\n+\t\"quoted\" `ticks` \\ backslash\n"
	got := BuildPrompt(diff)

	if !strings.HasPrefix(got, DefaultInstruction) {
		t.Error("prompt should start with the instruction")
	}
	if !strings.HasSuffix(got, "Diff:\n"+diff) {
		t.Errorf("diff should be appended verbatim, got %q", got)
	}
	if BuildPrompt(diff) != got {
		t.Error("BuildPrompt is not deterministic")
	}
}

func TestBuildPromptDoesNotTruncate(t *testing.T) {
	diff := strings.Repeat("+line\n", 50000)
	if got := BuildPrompt(diff); !strings.HasSuffix(got, diff) {
		t.Error("long diff was altered")
	}
}
