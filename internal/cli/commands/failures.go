package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"tso/internal/storage"
	"tso/internal/ui"
)

// FailuresCommand handles the failures command
type FailuresCommand struct {
	env   *env
	runID *string
}

// NewFailuresCommand creates a new FailuresCommand
func NewFailuresCommand(e *env, runID *string) *FailuresCommand {
	return &FailuresCommand{env: e, runID: runID}
}

// Execute runs the command
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	runID := *fc.runID
	j, err := fc.env.loadJournal(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if runID == "" {
		return fc.env.viewer.View(j)
	}

	// Resolved marks of a mirrored run go next to the local journal
	local := filepath.Join(filepath.Dir(fc.env.storage.Path()), runID+".json")
	return ui.NewFailureViewer(storage.NewJSONStorageAt(local)).View(j)
}
