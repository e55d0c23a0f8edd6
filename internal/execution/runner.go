package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"tso/internal/config"
	"tso/internal/domain"
	"tso/internal/tree"
)

// FilePlaceholder in the configured command is replaced by the test file
const FilePlaceholder = "{file}"

// Runner executes a single test file
type Runner struct {
	config *config.Config
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{config: cfg}
}

// Command returns the argv that runs testPath
func (r *Runner) Command(testPath string) []string {
	argv := make([]string, 0, len(r.config.Command)+1)
	replaced := false
	for _, arg := range r.config.Command {
		if strings.Contains(arg, FilePlaceholder) {
			arg = strings.ReplaceAll(arg, FilePlaceholder, testPath)
			replaced = true
		}
		argv = append(argv, arg)
	}
	if !replaced {
		argv = append(argv, testPath)
	}
	return argv
}

// Run executes the configured command for one test file and returns its
// outcome as an event. The file passes when the command exits zero.
func (r *Runner) Run(ctx context.Context, testPath string) *domain.CaseEvent {
	path := domain.TestPath{domain.File(testPath)}
	if testPath == tree.FailureName {
		return domain.NewCaseEvent(path, 0, domain.StatusFailed, "", "test module could not be loaded")
	}

	argv := r.Command(testPath)
	if len(argv) == 0 {
		return domain.NewCaseEvent(path, 0, domain.StatusFailed, "", "no test command configured")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	// Set environment variables
	cmd.Env = os.Environ() // Start with current environment
	cmd.Env = append(cmd.Env, fmt.Sprintf("TSO_TEST_FILE=%s", testPath))

	// Set working directory
	cmd.Dir = r.config.ProjectPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	status := domain.StatusPassed
	if err != nil {
		status = domain.StatusFailed
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// the command never ran; surface why
			if stderr.Len() > 0 {
				stderr.WriteString("\n")
			}
			stderr.WriteString(err.Error())
		}
	}
	return domain.NewCaseEvent(path, duration, status, stdout.String(), stderr.String())
}
