package gitrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Result holds the outcome of a completed git invocation.
type Result struct {
	// ExitCode is the process exit code. Zero means success.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// Duration is how long the command ran.
	Duration time.Duration
}

// Runner executes git commands.
type Runner interface {
	// Run executes git with the given arguments in dir.
	// A non-zero exit code is returned in the Result, not as an error.
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// Config configures a GitRunner.
type Config struct {
	// GitPath is the path to the git executable.
	// Default: "git" (resolved via PATH).
	GitPath string

	// Timeout is the per-command timeout.
	// Default: 10s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitPath: "git",
		Timeout: 10 * time.Second,
	}
}

// Option configures a GitRunner.
type Option func(*Config)

// WithGitPath sets the git executable path.
func WithGitPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.GitPath = path
		}
	}
}

// WithTimeout sets the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// GitRunner invokes the external git binary.
//
// GitRunner holds no mutable state and is safe for concurrent use;
// every invocation spawns an independent process.
type GitRunner struct {
	gitPath string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a GitRunner.
func New(logger *zap.Logger, opts ...Option) *GitRunner {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GitRunner{
		gitPath: cfg.GitPath,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Run executes git with the given arguments in dir.
func (r *GitRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.gitPath, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	if err == nil {
		r.logger.Debug("git command completed",
			zap.String("dir", dir),
			zap.String("args", strings.Join(args, " ")),
			zap.Duration("duration", elapsed))
		return result, nil
	}

	// Timeout takes precedence: CommandContext kills the process on
	// deadline expiry, which would otherwise look like a signal death.
	if runCtx.Err() == context.DeadlineExceeded {
		return Result{}, fmt.Errorf("git %s after %v: %w", strings.Join(args, " "), elapsed, ErrTimeout)
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return Result{}, fmt.Errorf("git %s: signal %v: %w", strings.Join(args, " "), status.Signal(), ErrKilled)
		}
		// Normal non-zero exit. Still a valid result.
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	// Couldn't launch the process at all.
	return Result{}, fmt.Errorf("launch %s: %v: %w", r.gitPath, err, ErrGitNotFound)
}

// GitPath returns the configured git executable path.
func (r *GitRunner) GitPath() string {
	return r.gitPath
}

// Ensure GitRunner implements Runner.
var _ Runner = (*GitRunner)(nil)
