package sandbox

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vipudev/vipudev/internal/log"
)

func TestHostCommand(t *testing.T) {
	tests := []struct {
		language     string
		wantBin      string
		wantFilename string
	}{
		{"python", "python3", "main.py"},
		{"javascript", "node", "main.js"},
		{"", "node", "main.js"},
		{"ruby", "node", "main.js"},
	}
	for _, tt := range tests {
		bin, filename := hostCommand(tt.language)
		if bin != tt.wantBin || filename != tt.wantFilename {
			t.Errorf("hostCommand(%q) = (%q, %q), want (%q, %q)",
				tt.language, bin, filename, tt.wantBin, tt.wantFilename)
		}
	}
}

func TestProjectImage(t *testing.T) {
	image, cmd := projectImage("python")
	if image != "python:3.11" || cmd != "python main.py" {
		t.Errorf("projectImage(python) = (%q, %q)", image, cmd)
	}
	image, cmd = projectImage("javascript")
	if image != "node:18" || cmd != "node main.js" {
		t.Errorf("projectImage(javascript) = (%q, %q)", image, cmd)
	}
}

func TestContainerArgs(t *testing.T) {
	r := New(Config{}, log.NewNop())
	args := r.containerArgs("/tmp/scratch", "node:18", "node main.js")

	want := []string{
		"run", "--rm",
		"--network", "none",
		"--memory", "512m",
		"--cpus", "1",
		"-v", "/tmp/scratch:/app",
		"-w", "/app",
		"node:18",
		"bash", "-lc", "node main.js",
	}
	if len(args) != len(want) {
		t.Fatalf("containerArgs returned %d args, want %d: %v", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("containerArgs[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestStageFiles(t *testing.T) {
	scratch := t.TempDir()
	files := []File{
		{Path: "/main.js", Content: "console.log(1)"},
		{Path: "src/util.js", Content: "module.exports = {}"},
	}
	if err := stageFiles(scratch, files); err != nil {
		t.Fatalf("stageFiles() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(scratch, "main.js"))
	if err != nil {
		t.Fatalf("reading staged main.js: %v", err)
	}
	if string(got) != "console.log(1)" {
		t.Errorf("staged main.js = %q", got)
	}
	if _, err := os.Stat(filepath.Join(scratch, "src", "util.js")); err != nil {
		t.Errorf("nested file not staged: %v", err)
	}
}

func TestStageFiles_RejectsEscapingPaths(t *testing.T) {
	scratch := t.TempDir()
	tests := []string{
		"../outside.txt",
		"/../../etc/passwd",
		"a/../../b.txt",
		"",
	}
	for _, path := range tests {
		err := stageFiles(scratch, []File{{Path: path, Content: "x"}})
		if !errors.Is(err, ErrUnsafePath) {
			t.Errorf("stageFiles(%q) error = %v, want ErrUnsafePath", path, err)
		}
	}
}

func TestRun_EmptyCode(t *testing.T) {
	r := New(Config{}, log.NewNop())
	if _, err := r.Run(context.Background(), "python", ""); !errors.Is(err, ErrNoCode) {
		t.Errorf("Run() error = %v, want ErrNoCode", err)
	}
}

func TestRunProject_EmptyFiles(t *testing.T) {
	r := New(Config{}, log.NewNop())
	if _, err := r.RunProject(context.Background(), "python", "", nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("RunProject() error = %v, want ErrNoFiles", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{}, log.NewNop())
	if r.cfg.DockerBinary != "docker" {
		t.Errorf("DockerBinary = %q, want docker", r.cfg.DockerBinary)
	}
	if r.cfg.RunTimeout != 7*time.Second {
		t.Errorf("RunTimeout = %v, want 7s", r.cfg.RunTimeout)
	}
	if r.cfg.ProjectTimeout != 20*time.Second {
		t.Errorf("ProjectTimeout = %v, want 20s", r.cfg.ProjectTimeout)
	}
	if r.cfg.MemoryLimit != "512m" || r.cfg.CPULimit != "1" {
		t.Errorf("limits = %q/%q, want 512m/1", r.cfg.MemoryLimit, r.cfg.CPULimit)
	}
}

func requirePython3(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func TestRun_Python(t *testing.T) {
	requirePython3(t)

	r := New(Config{}, log.NewNop())
	result, err := r.Run(context.Background(), "python", `print("hello")`)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Stdout, "hello") {
		t.Errorf("Stdout = %q, want to contain %q", result.Stdout, "hello")
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if result.TimedOut {
		t.Error("TimedOut = true, want false")
	}
}

func TestRun_NonzeroExit(t *testing.T) {
	requirePython3(t)

	r := New(Config{}, log.NewNop())
	result, err := r.Run(context.Background(), "python", `import sys; sys.exit(3)`)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
}

func TestRun_Timeout(t *testing.T) {
	requirePython3(t)

	r := New(Config{RunTimeout: 200 * time.Millisecond}, log.NewNop())
	result, err := r.Run(context.Background(), "python", `import time; time.sleep(10)`)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if result.ExitCode == 0 {
		t.Errorf("ExitCode = 0, want nonzero after kill")
	}
}

func TestRun_TimeoutWithLingeringChild(t *testing.T) {
	requirePython3(t)

	// The spawned child inherits the output pipes and sleeps well past
	// the deadline. Run must still return shortly after the kill.
	code := `import subprocess, time
subprocess.Popen(["sleep", "8"])
time.sleep(10)`

	r := New(Config{RunTimeout: 300 * time.Millisecond}, log.NewNop())
	start := time.Now()
	result, err := r.Run(context.Background(), "python", code)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if elapsed > 5*time.Second {
		t.Errorf("Run returned after %v, want well under the child's sleep", elapsed)
	}
}

// fakeRuntime writes an executable shell script and returns its path, so
// container-path behavior can be tested without a real container runtime.
func fakeRuntime(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime")
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		t.Fatalf("writing fake runtime: %v", err)
	}
	return path
}

func countScratchDirs(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "vipudev-project-*"))
	if err != nil {
		t.Fatalf("globbing scratch dirs: %v", err)
	}
	return len(matches)
}

func TestRunProject_Timeout(t *testing.T) {
	// The script ignores its arguments, emits some output, backgrounds a
	// child that keeps the pipes open, and sleeps past the deadline.
	runtime := fakeRuntime(t, "#!/bin/sh\necho started\nsleep 10 &\nsleep 10\n")

	before := countScratchDirs(t)
	r := New(Config{DockerBinary: runtime, ProjectTimeout: 300 * time.Millisecond}, log.NewNop())
	start := time.Now()
	result, err := r.RunProject(context.Background(), "python", "",
		[]File{{Path: "main.py", Content: "print(1)"}})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("RunProject() error = %v", err)
	}
	if !strings.Contains(result.Stderr, "[process killed due to timeout]") {
		t.Errorf("Stderr = %q, want timeout marker", result.Stderr)
	}
	if result.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "started") {
		t.Errorf("Stdout = %q, want output collected before the kill", result.Stdout)
	}
	if elapsed > 5*time.Second {
		t.Errorf("RunProject returned after %v, want well under the child's sleep", elapsed)
	}
	if after := countScratchDirs(t); after != before {
		t.Errorf("scratch dirs = %d after run, want %d", after, before)
	}
}

func TestRunProject_SpawnFailure(t *testing.T) {
	r := New(Config{DockerBinary: "no-such-container-runtime"}, log.NewNop())
	_, err := r.RunProject(context.Background(), "python", "",
		[]File{{Path: "main.py", Content: "print(1)"}})
	if !errors.Is(err, ErrSpawn) {
		t.Errorf("RunProject() error = %v, want ErrSpawn", err)
	}
}
