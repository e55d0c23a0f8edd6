package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tso/internal/plugin"
	"tso/internal/tree"
)

// ErrSelectionUnavailable is returned when no selection can be applied,
// either for lack of settings or because the session could not be started
var ErrSelectionUnavailable = errors.New("selection is not available")

// SelectCommand handles the subset and reorder commands: it applies one
// selection to the discovered tests and prints the result in run order
type SelectCommand struct {
	env  *env
	mode plugin.Mode
}

// NewSelectCommand creates a new SelectCommand for mode
func NewSelectCommand(e *env, mode plugin.Mode) *SelectCommand {
	return &SelectCommand{env: e, mode: mode}
}

// Execute runs the command
func (sc *SelectCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := sc.env.config
	cfg.Flags.Reorder = sc.mode == plugin.ModeReorder
	cfg.Flags.Subset = sc.mode == plugin.ModeSubset
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, err := sc.env.discover()
	if err != nil {
		return err
	}
	if tree.IsEmpty(root) {
		color.Yellow("No tests found")
		return nil
	}

	ctx := cmd.Context()
	p := sc.env.newPlugin(nil, nil)
	if !p.Enabled() {
		return fmt.Errorf("%s: %w with the current settings", sc.mode, ErrSelectionUnavailable)
	}
	if err := p.Begin(ctx); err != nil {
		_, _ = p.Finalize(ctx)
		return err
	}
	if !p.Online() {
		_, _ = p.Finalize(ctx)
		return fmt.Errorf("%s: %w: test session could not be started", sc.mode, ErrSelectionUnavailable)
	}

	before := len(tree.ListNames(root))
	prepErr := p.Prepare(ctx, root)
	if _, err := p.Finalize(ctx); err != nil && prepErr == nil {
		prepErr = err
	}
	if prepErr != nil {
		return prepErr
	}

	names := tree.ListNames(root)
	sc.env.formatter.PrintSelection(sc.mode.String(), before, len(names))
	return sc.env.formatter.PrintTestList(names, cfg.Flags.TestCases, nil)
}
