// Package subset delegates test selection to the external subset tool.
// Candidate names go in on stdin, the selected names come back one per
// line on stdout.
package subset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tso/internal/logging"
	"tso/internal/options"
)

// ErrToolFailed is wrapped by every *ToolError
var ErrToolFailed = errors.New("subset tool failed")

// ToolError describes a tool invocation that exited non-zero
type ToolError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with %d. stdout: %q, stderr: %q",
		strings.Join(e.Args, " "), e.ExitCode, e.Stdout, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	return ErrToolFailed
}

// Subcommands and the fixed target type
const (
	subsetCommand      = "subset"
	splitSubsetCommand = "split-subset"
	sessionFlag        = "--session"
	subsetIDFlag       = "--subset-id"
	targetType         = "file"
)

// Tool runs the subset tool for one test session
type Tool struct {
	Path    string // Executable, e.g. "launchable"
	Session string // builds/<build>/test_sessions/<id>
	Runner  Runner
	Log     *logging.Logger
	Cache   *Cache // Optional
}

// NewTool returns a Tool using ExecRunner
func NewTool(path, session string, log *logging.Logger) *Tool {
	return &Tool{Path: path, Session: session, Runner: ExecRunner{}, Log: log}
}

// Subset asks the tool for target percent of names and returns the
// selected names in the order the tool chose.
func (t *Tool) Subset(ctx context.Context, names []string, target string) ([]string, error) {
	return t.SubsetWithOptions(ctx, names, options.Options{{Flag: options.TargetFlag, Value: target + "%"}})
}

// SubsetWithOptions passes opts to the tool. When opts ask for a bin the
// split protocol is used: the first call computes a subset and returns
// its id, the second returns the names of the requested bin.
func (t *Tool) SubsetWithOptions(ctx context.Context, names []string, opts options.Options) ([]string, error) {
	if !opts.NeedsSplit() {
		args := append([]string{subsetCommand, sessionFlag, t.Session}, opts.Args()...)
		out, err := t.run(ctx, append(args, targetType), strings.Join(names, "\n"))
		if err != nil {
			return nil, err
		}
		return splitLines(out), nil
	}

	bin, _ := opts.Get(options.BinFlag)
	first := opts.Without(options.BinFlag).With(options.SplitFlag, "")
	args := append([]string{subsetCommand, sessionFlag, t.Session}, first.Args()...)
	out, err := t.run(ctx, append(args, targetType), strings.Join(names, "\n"))
	if err != nil {
		return nil, err
	}

	subsetID := strings.TrimSpace(out)
	if subsetID == "" {
		return nil, fmt.Errorf("%s returned no subset id", subsetCommand)
	}
	t.Log.Debugf("subset id: %s", subsetID)

	out, err = t.run(ctx, []string{splitSubsetCommand, subsetIDFlag, subsetID, options.BinFlag, bin, targetType}, "")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (t *Tool) run(ctx context.Context, args []string, stdin string) (string, error) {
	if out, ok := t.Cache.Get(t.Path, args, stdin); ok {
		t.Log.Debugf("cached: %s %s", t.Path, strings.Join(args, " "))
		return out, nil
	}

	t.Log.Debugf("running: %s %s", t.Path, strings.Join(args, " "))
	stdout, stderr, code, err := t.Runner.Run(ctx, t.Path, args, stdin)
	if err != nil {
		return "", fmt.Errorf("run %s: %w", t.Path, err)
	}
	if code != 0 {
		return "", &ToolError{
			Args:     append([]string{t.Path}, args...),
			ExitCode: code,
			Stdout:   stdout,
			Stderr:   stderr,
		}
	}

	t.Cache.Add(t.Path, args, stdin, stdout)
	return stdout, nil
}

// splitLines parses the tool's newline-separated output, ignoring blank lines
func splitLines(out string) []string {
	out = strings.TrimRight(out, "\n")
	names := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		names = append(names, line)
	}
	return names
}
