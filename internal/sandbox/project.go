package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	imagePython = "python:3.11"
	imageNode   = "node:18"

	defaultCmdPython = "python main.py"
	defaultCmdNode   = "node main.js"

	workDir = "/app"
)

// projectImage maps a language to the container image and default command.
func projectImage(language string) (image, defaultCmd string) {
	if language == "python" {
		return imagePython, defaultCmdPython
	}
	return imageNode, defaultCmdNode
}

// RunProject stages the submitted files and runs the project in a container
// with no network access and fixed memory/CPU limits. A caller-supplied
// command overrides the language default. The scratch directory is removed
// on every exit path, including a wall-clock kill.
func (r *Runner) RunProject(ctx context.Context, language, command string, files []File) (*ProjectResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	image, defaultCmd := projectImage(language)
	if strings.TrimSpace(command) == "" {
		command = defaultCmd
	}

	scratch, err := os.MkdirTemp("", "vipudev-project-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer r.cleanup(scratch)

	if err := stageFiles(scratch, files); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.ProjectTimeout)
	defer cancel()

	args := r.containerArgs(scratch, image, command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.cfg.DockerBinary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeWaitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	waitErr := cmd.Wait()
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

	result := &ProjectResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Image:    image,
		Command:  command,
	}

	if timedOut {
		result.Stderr += timeoutMarker
		result.ExitCode = timeoutExitCode
	} else if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
			return nil, fmt.Errorf("waiting for container process: %w", waitErr)
		}
	}

	r.logger.Debug("project run finished",
		"language", language,
		"image", image,
		"exit_code", result.ExitCode,
		"timed_out", timedOut,
	)
	return result, nil
}

// containerArgs builds the container invocation: ephemeral, no network,
// bounded memory and CPU, scratch mounted at the working directory.
func (r *Runner) containerArgs(scratch, image, command string) []string {
	return []string{
		"run", "--rm",
		"--network", "none",
		"--memory", r.cfg.MemoryLimit,
		"--cpus", r.cfg.CPULimit,
		"-v", scratch + ":" + workDir,
		"-w", workDir,
		image,
		"bash", "-lc", command,
	}
}

// stageFiles writes the submitted files under scratch, creating intermediate
// directories as needed. Leading slashes are stripped so absolute paths land
// inside scratch; a path that still escapes scratch after joining is
// rejected outright.
func stageFiles(scratch string, files []File) error {
	for _, f := range files {
		rel := strings.TrimLeft(f.Path, "/\\")
		if rel == "" || !filepath.IsLocal(rel) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, f.Path)
		}
		target := filepath.Join(scratch, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return fmt.Errorf("staging %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o600); err != nil {
			return fmt.Errorf("staging %s: %w", rel, err)
		}
	}
	return nil
}
