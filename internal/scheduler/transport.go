package scheduler

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

// Runner executes a rendered scheduler command and captures its
// results. Timeouts and cancellation are expressed through the context;
// the tomato adapter itself never blocks.
type Runner interface {
	// Run executes the command and returns its exit code and captured
	// output streams. A non-zero exit code is not an error here; err is
	// reserved for failures to execute the command at all.
	Run(ctx context.Context, command string) (exitCode int, stdout, stderr string, err error)
}

// LocalRunner executes commands through the local shell. This is the
// transport for deployments where the service runs on the same host as
// the tomato daemon; remote setups can provide an SSH-backed Runner.
type LocalRunner struct {
	// Shell is the shell binary to use. Defaults to /bin/sh.
	Shell string
}

// Run implements Runner.
func (r *LocalRunner) Run(ctx context.Context, command string) (int, string, string, error) {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, "", "", fmt.Errorf("failed to execute %q: %w", command, err)
		}
		return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
	}

	return 0, stdout.String(), stderr.String(), nil
}

// ScriptWriter persists a submission script so the scheduler can read
// it. Separated from the transport so tests can capture scripts without
// touching the filesystem.
type ScriptWriter interface {
	// WriteScript stores the script content under a name derived from
	// name and returns the path to hand to the submit command.
	WriteScript(name, content string) (path string, err error)
}

// DirScriptWriter writes submission scripts into a fixed directory.
type DirScriptWriter struct {
	Dir string
}

// WriteScript implements ScriptWriter.
func (w *DirScriptWriter) WriteScript(name, content string) (string, error) {
	dir := w.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create script dir: %w", err)
	}

	f, err := os.CreateTemp(dir, sanitizeScriptName(name)+"-*.yml")
	if err != nil {
		return "", fmt.Errorf("failed to create submission script: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write submission script: %w", err)
	}

	return filepath.Clean(f.Name()), nil
}

// sanitizeScriptName keeps script file names shell- and
// filesystem-friendly regardless of what the caller named the job.
func sanitizeScriptName(name string) string {
	if name == "" {
		return "payload"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
