package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	apppkg "github.com/hyperifyio/lmsquiz/internal/app"
)

const page = `<div class="que"><div class="qtext">Name the capital of France.</div>
<div class="answer"><input type="text" name="q1"></div></div>`

// Smoke test: run writes the JSON output for a saved review page.
func TestRun_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "review.html")
	out := filepath.Join(dir, "out.json")
	if err := os.WriteFile(in, []byte(page), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := apppkg.DefaultConfig()
	cfg.InputPath = in
	cfg.OutputPath = out
	if err := run(cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || len(b) == 0 {
		t.Fatalf("expected output file, err=%v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	if err := run(apppkg.DefaultConfig()); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{apppkg.ErrNoQuestions, 2},
		{fmt.Errorf("wrapped: %w", apppkg.ErrNoQuestions), 2},
		{fmt.Errorf("login: boom"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v)=%d, want %d", tc.err, got, tc.want)
		}
	}
}
