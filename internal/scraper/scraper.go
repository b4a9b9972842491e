package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"shelver/internal/config"
)

var commandContext = exec.CommandContext

// Runner refreshes library metadata after files have been relocated.
type Runner interface {
	Run(ctx context.Context) (Result, error)
	Enabled() bool
}

// Result describes one scraper invocation.
type Result struct {
	ExitCode int
	Duration time.Duration
	Output   string
}

// maxOutput bounds captured output kept for logging.
const maxOutput = 4096

// NewRunner returns a command runner when a scraper is configured, otherwise a
// disabled runner.
func NewRunner(cfg *config.Config) Runner {
	if cfg == nil || !cfg.ScraperEnabled() {
		return disabled{}
	}
	return &Command{
		Path:    cfg.Scraper.Command,
		Args:    append([]string(nil), cfg.Scraper.Args...),
		Timeout: cfg.ScraperTimeout(),
	}
}

// Command runs an external scraper binary such as tinyMediaManager's CLI.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// Enabled reports whether a command is configured.
func (c *Command) Enabled() bool {
	return c != nil && strings.TrimSpace(c.Path) != ""
}

// Run executes the command and waits for it. A non-zero exit is reported as an
// error carrying the exit code in Result.
func (c *Command) Run(ctx context.Context) (Result, error) {
	var result Result
	if !c.Enabled() {
		return result, errors.New("scraper command not configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var output bytes.Buffer
	cmd := commandContext(ctx, c.Path, c.Args...) //nolint:gosec
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Output = truncate(strings.TrimSpace(output.String()), maxOutput)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s: %w", c.Path, ctxErr)
		}
		return result, fmt.Errorf("%s: %w", c.Path, err)
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

type disabled struct{}

func (disabled) Run(context.Context) (Result, error) { return Result{}, nil }
func (disabled) Enabled() bool                        { return false }
