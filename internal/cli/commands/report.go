package commands

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tso/internal/client"
	"tso/internal/ui"
	"tso/internal/uploader"
)

// ReportCommand handles the report command: it uploads the events of a
// saved journal again, for runs whose results did not reach the service
type ReportCommand struct {
	env   *env
	runID *string
}

// NewReportCommand creates a new ReportCommand
func NewReportCommand(e *env, runID *string) *ReportCommand {
	return &ReportCommand{env: e, runID: runID}
}

// Execute runs the command
func (rc *ReportCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := rc.env.config
	ctx := cmd.Context()

	j, err := rc.env.loadJournal(ctx, *rc.runID)
	if err != nil {
		return err
	}
	events := j.Events()
	if len(events) == 0 {
		color.Yellow("Journal %s has no events", j.RunID)
		return nil
	}

	// Report into the session the run used unless one is given
	if cfg.Session == "" && cfg.BuildName == "" {
		cfg.Session = j.Session
		cfg.BuildName = j.Build
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	api, err := client.New(cfg, rc.env.log)
	if err != nil {
		return err
	}
	if err := api.Start(ctx); err != nil {
		return err
	}

	bar := ui.NewUploadProgress(len(events))
	var (
		mu               sync.Mutex
		uploaded, failed int
	)
	opts := uploader.OptionsFromConfig(cfg, rc.env.log)
	opts.OnFlush = func(_ uploader.Lane, n int, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed += n
		} else {
			uploaded += n
		}
		bar.Update(uploaded, failed)
	}

	b := uploader.New(api, opts)
	b.Start()
	for _, ev := range events {
		b.Enqueue(ev)
	}
	b.Shutdown()
	bar.Finish()

	if err := api.Finish(ctx); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d events were not uploaded", failed, len(events))
	}
	color.Green("✓ Uploaded %d events of run %s to %s", uploaded, j.RunID, api.SessionPath())
	return nil
}

// RunsCommand lists the runs mirrored to S3
type RunsCommand struct {
	env *env
}

// NewRunsCommand creates a new RunsCommand
func NewRunsCommand(e *env) *RunsCommand {
	return &RunsCommand{env: e}
}

// Execute runs the command
func (rc *RunsCommand) Execute(cmd *cobra.Command, args []string) error {
	m, err := rc.env.mirror()
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no S3 bucket in the report settings")
	}

	runs, err := m.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		color.Yellow("No mirrored runs")
		return nil
	}
	for _, run := range runs {
		fmt.Println(run)
	}
	return nil
}
