package scraper_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shelver/internal/scraper"
	"shelver/internal/testsupport"
)

func TestNewRunnerDisabledWithoutCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := scraper.NewRunner(cfg)
	if runner.Enabled() {
		t.Fatal("expected disabled runner")
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("disabled runner returned error: %v", err)
	}
}

func TestRunnerInvokesCommandWithArgs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedScraper(0))
	runner := scraper.NewRunner(cfg)
	if !runner.Enabled() {
		t.Fatal("expected enabled runner")
	}

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
	logged, err := os.ReadFile(testsupport.ScraperLog(cfg))
	if err != nil {
		t.Fatalf("read scraper log: %v", err)
	}
	if strings.TrimSpace(string(logged)) != "tvshow -u" {
		t.Fatalf("unexpected scraper args %q", logged)
	}
}

func TestRunnerReportsExitCode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedScraper(3))
	result, err := scraper.NewRunner(cfg).Run(context.Background())
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestRunnerTimeout(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cmd := &scraper.Command{Path: script, Timeout: 100 * time.Millisecond}

	start := time.Now()
	if _, err := cmd.Run(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}
