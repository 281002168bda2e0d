// Package sandbox executes untrusted code submissions.
//
// Two modes exist: a single-file run directly on the host interpreter with
// a short timeout, and a multi-file project run inside a container with no
// network and fixed memory/CPU ceilings. Both are strictly one-shot per
// request: no retries, no queueing, no shared quota. Each invocation stages
// into a uniquely named scratch directory that is removed on every exit
// path, including forced kills.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// timeoutMarker is appended to stderr when the process is killed at the
// wall-clock limit.
const timeoutMarker = "\n[process killed due to timeout]"

// timeoutExitCode is the exit code sentinel for a forced kill.
const timeoutExitCode = -1

// pipeWaitDelay bounds Wait after the deadline kill. Submitted code can
// spawn children that inherit the output pipes and outlive the direct
// child; without this, Wait blocks until the last pipe holder exits.
const pipeWaitDelay = time.Second

var (
	// ErrNoFiles indicates a project run with an empty files array.
	ErrNoFiles = errors.New("files array is required")

	// ErrNoCode indicates a host run with empty code.
	ErrNoCode = errors.New("code is required")

	// ErrUnsafePath indicates a submitted file path that would escape the
	// scratch directory.
	ErrUnsafePath = errors.New("file path escapes scratch directory")

	// ErrSpawn indicates the external process could not be started at all.
	ErrSpawn = errors.New("spawning sandbox process")
)

// File is one submitted source file.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RunResult is the outcome of a single-file host run.
type RunResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	TimedOut bool   `json:"timedOut"`
}

// ProjectResult is the outcome of a containerized project run.
type ProjectResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	Image    string `json:"imageUsed"`
	Command  string `json:"commandRun"`
}

// Config holds runner settings.
type Config struct {
	DockerBinary   string        // container runtime binary, default "docker"
	RunTimeout     time.Duration // host run wall clock limit, default 7s
	ProjectTimeout time.Duration // container run wall clock limit, default 20s
	MemoryLimit    string        // container memory ceiling, default "512m"
	CPULimit       string        // container CPU ceiling, default "1"
}

// Runner executes code submissions. Safe for concurrent use: invocations
// share nothing except the configuration.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Runner, filling zero config fields with defaults.
func New(cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DockerBinary == "" {
		cfg.DockerBinary = "docker"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 7 * time.Second
	}
	if cfg.ProjectTimeout <= 0 {
		cfg.ProjectTimeout = 20 * time.Second
	}
	if cfg.MemoryLimit == "" {
		cfg.MemoryLimit = "512m"
	}
	if cfg.CPULimit == "" {
		cfg.CPULimit = "1"
	}
	return &Runner{cfg: cfg, logger: logger}
}

// hostCommand maps a language to the interpreter and file name for host runs.
// Anything that is not python runs as node, matching the editor's two
// supported snippet languages.
func hostCommand(language string) (bin, filename string) {
	if language == "python" {
		return "python3", "main.py"
	}
	return "node", "main.js"
}

// Run executes a single code snippet on the host interpreter.
// The scratch directory is removed on every exit path.
func (r *Runner) Run(ctx context.Context, language, code string) (*RunResult, error) {
	if code == "" {
		return nil, ErrNoCode
	}

	bin, filename := hostCommand(language)

	scratch, err := os.MkdirTemp("", "vipudev-run-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer r.cleanup(scratch)

	path := filepath.Join(scratch, filename)
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		return nil, fmt.Errorf("staging snippet: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, bin, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeWaitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	waitErr := cmd.Wait()
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

	result := &RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		TimedOut: timedOut,
	}

	if waitErr != nil && !timedOut {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
			return nil, fmt.Errorf("waiting for snippet process: %w", waitErr)
		}
		// Nonzero exit and abandoned pipes are valid results, not errors.
	}

	r.logger.Debug("host run finished",
		"language", language,
		"exit_code", result.ExitCode,
		"timed_out", timedOut,
	)
	return result, nil
}

// cleanup removes a scratch directory, best-effort. Errors are swallowed;
// they must never surface to the caller.
func (r *Runner) cleanup(scratch string) {
	if err := os.RemoveAll(scratch); err != nil {
		r.logger.Debug("scratch cleanup failed", "dir", scratch, "error", err)
	}
}
