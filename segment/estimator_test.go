package segment

import (
	"strings"
	"testing"
)

func TestEstimateTokens_NonNegative(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 for empty string, got %d", got)
	}
	if got := EstimateTokens("a"); got != 1 {
		t.Errorf("expected 1 for single char, got %d", got)
	}
}

func TestEstimateTokens_MonotonicUnderConcatenation(t *testing.T) {
	parts := []string{"hello", " world", " this is a transcript", strings.Repeat("x", 1000)}
	var acc string
	last := 0
	for _, p := range parts {
		acc += p
		got := EstimateTokens(acc)
		if got < last {
			t.Fatalf("estimate decreased after concatenation: %d -> %d", last, got)
		}
		last = got
	}
}

func TestEstimateTokens_ScalesWithLength(t *testing.T) {
	text := strings.Repeat("word ", 100)
	if got := EstimateTokens(text); got != 125 {
		t.Errorf("expected 125 tokens for 500 chars, got %d", got)
	}
}

func TestWordOverheadTokens_Positive(t *testing.T) {
	got := WordOverheadTokens()
	if got <= 0 {
		t.Fatalf("expected positive per-word overhead, got %d", got)
	}
	// Stable across calls; the planner calls it repeatedly.
	if again := WordOverheadTokens(); again != got {
		t.Errorf("expected deterministic overhead, got %d then %d", got, again)
	}
}
