package subset

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Runner starts an external process and collects its output
type Runner interface {
	// Run executes name with args, feeding stdin when it is non-empty.
	// err reports a failure to start or wait for the process; a process
	// that ran and exited non-zero returns its exit code with a nil err.
	Run(ctx context.Context, name string, args []string, stdin string) (stdout, stderr string, exitCode int, err error)
}

// ExecRunner runs processes with os/exec
type ExecRunner struct {
	Dir string // Working directory, empty for the current one
}

// Run implements Runner
func (r ExecRunner) Run(ctx context.Context, name string, args []string, stdin string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return stdout.String(), stderr.String(), -1, err
	}
	return stdout.String(), stderr.String(), 0, nil
}
