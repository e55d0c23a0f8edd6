package commands

import (
	"github.com/spf13/cobra"

	"tso/internal/tree"
	"tso/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	env *env
}

// NewListCommand creates a new ListCommand
func NewListCommand(e *env) *ListCommand {
	return &ListCommand{env: e}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	root, err := lc.env.discover()
	if err != nil {
		return err
	}

	// Mark the files that failed in the last run, if there was one
	var failed map[string]struct{}
	if j, err := lc.env.storage.Load(); err == nil {
		failed = ui.FailedFiles(j)
	}

	return lc.env.formatter.PrintTestList(tree.ListNames(root), lc.env.config.Flags.TestCases, failed)
}
