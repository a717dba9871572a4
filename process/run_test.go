package process

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun_CapturesStdout(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Binary: "echo",
		Args:   []string{"hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(string(result.Stdout)); got != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo oops >&2; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
	if !strings.Contains(string(result.Stderr), "oops") {
		t.Errorf("expected stderr captured, got %q", result.Stderr)
	}
}

func TestRun_MissingBinaryName(t *testing.T) {
	if _, err := Run(context.Background(), Command{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 100 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error for canceled process")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("expected process killed promptly after cancellation")
	}
}

func TestRun_Stdin(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Binary: "cat",
		Stdin:  strings.NewReader("piped input"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != "piped input" {
		t.Errorf("expected stdin piped through, got %q", result.Stdout)
	}
}
