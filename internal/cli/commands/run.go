package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tso/internal/domain"
	"tso/internal/execution"
	"tso/internal/storage"
	"tso/internal/tree"
	"tso/internal/ui"
	"tso/internal/uploader"
)

// ErrTestsFailed is returned by run when at least one test failed
var ErrTestsFailed = errors.New("tests failed")

// RunCommand handles the run command
type RunCommand struct {
	env          *env
	openFailures *bool
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(e *env, openFailures *bool) *RunCommand {
	return &RunCommand{env: e, openFailures: openFailures}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := rc.env.config
	ctx := cmd.Context()

	root, err := rc.env.discover()
	if err != nil {
		return err
	}
	if tree.IsEmpty(root) {
		color.Yellow("No tests to execute")
		return nil
	}

	journal := storage.NewRecorder(cfg.BuildName, cfg.Session)
	archiveSink, closeArchive, err := rc.env.openArchive(ctx, journal.Journal().RunID)
	if err != nil {
		return err
	}
	defer closeArchive()

	var sinks []uploader.Sink
	if archiveSink != nil {
		sinks = append(sinks, archiveSink)
	}
	p := rc.env.newPlugin(journal, rc.env.storage, sinks...)
	if err := p.Begin(ctx); err != nil {
		_, _ = p.Finalize(ctx)
		return err
	}

	before := len(tree.ListNames(root))
	if err := p.Prepare(ctx, root); err != nil {
		_, _ = p.Finalize(ctx)
		return err
	}
	tests := tree.ListNames(root)
	if p.Enabled() {
		rc.env.formatter.PrintSelection(p.Mode().String(), before, len(tests))
	}

	pool := execution.NewWorkerPool(cfg, execution.NewRunner(cfg))
	pool.SetProgress(ui.NewProgressBar(len(tests)))
	summary, runErr := pool.Execute(ctx, tests, p.Record)

	j, err := p.Finalize(ctx)
	if err != nil {
		return err
	}
	if err := rc.mirror(cmd, j); err != nil {
		rc.env.log.Warnf("%v", err)
	}

	rc.env.formatter.PrintStats(j, cfg.Processors)
	if summary.Skipped > 0 {
		color.Yellow("%d test(s) were not started", summary.Skipped)
	}
	if runErr != nil {
		return runErr
	}

	if summary.Failed == 0 {
		return nil
	}
	if *rc.openFailures {
		if err := rc.env.viewer.View(j); err != nil {
			return err
		}
	}
	return ErrTestsFailed
}

func (rc *RunCommand) mirror(cmd *cobra.Command, j *domain.Journal) error {
	m, err := rc.env.mirror()
	if err != nil || m == nil {
		return err
	}
	if err := m.Put(cmd.Context(), j); err != nil {
		return fmt.Errorf("failed to mirror journal: %w", err)
	}
	rc.env.log.Infof("journal mirrored as run %s", j.RunID)
	return nil
}
