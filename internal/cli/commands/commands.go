package commands

import (
	"tso/internal/cli"
	"tso/internal/config"
	"tso/internal/plugin"

	"github.com/spf13/cobra"
)

// Commands holds all CLI commands
type Commands struct {
	env      *env
	runID    string
	openFail bool

	Run      *RunCommand
	List     *ListCommand
	Subset   *SelectCommand
	Reorder  *SelectCommand
	Report   *ReportCommand
	Runs     *RunsCommand
	Failures *FailuresCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	e := newEnv(cfg)
	c := &Commands{env: e}

	c.Run = NewRunCommand(e, &c.openFail)
	c.List = NewListCommand(e)
	c.Subset = NewSelectCommand(e, plugin.ModeSubset)
	c.Reorder = NewSelectCommand(e, plugin.ModeReorder)
	c.Report = NewReportCommand(e, &c.runID)
	c.Runs = NewRunsCommand(e)
	c.Failures = NewFailuresCommand(e, &c.runID)
	return c
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to the config file (default tso.yaml in the current directory)")
	rootCmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Print debug messages")
	rootCmd.PersistentFlags().BoolVar(&flags.ReportError, "report-error", false, "Fail instead of falling back to the original test order when selection or reporting fails")
	rootCmd.PersistentFlags().StringVar(&flags.BuildName, "build", "", "Build the test session belongs to")
	rootCmd.PersistentFlags().StringVar(&flags.Session, "session", "", "Existing test session (builds/<build>/test_sessions/<id>)")
	rootCmd.PersistentFlags().StringVar(&flags.Journal, "journal", "", "Path of the result journal")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Update config with flags after parsing
		return c.env.setup(flags)
	}

	addDiscoveryFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
		cmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g., 'test_user*' or 'tests/**/api_*')")
		cmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "Show the test cases of every file")
	}
	addSubsetFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&flags.Target, "target", "", "Percentage of the tests to select, e.g. 30")
		cmd.Flags().StringVar(&flags.Options, "options", "", "Options passed to the subset tool, e.g. '--target 30% --bin 1/2'")
		cmd.Flags().BoolVar(&flags.Score, "score", false, "Run the subset in the tool's ranking order instead of discovery order")
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run tests, optionally reordered or subset",
		Long:  "Discover tests, apply the selected reorder or subset, execute them in parallel and report every result",
		RunE:  c.Run.Execute,
	}
	addDiscoveryFlags(runCmd)
	addSubsetFlags(runCmd)
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of processors to use")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first test failure")
	runCmd.Flags().BoolVar(&flags.Reorder, "reorder", false, "Run tests in the order the service predicts")
	runCmd.Flags().BoolVar(&flags.Subset, "subset", false, "Run only the subset selected by the subset tool")
	runCmd.Flags().BoolVar(&c.openFail, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tests",
		Long:  "Scan and list all tests in run order without executing them",
		RunE:  c.List.Execute,
	}
	addDiscoveryFlags(listCmd)
	rootCmd.AddCommand(listCmd)

	// Subset command
	subsetCmd := &cobra.Command{
		Use:   "subset",
		Short: "Print the subset of tests the subset tool selects",
		RunE:  c.Subset.Execute,
	}
	addDiscoveryFlags(subsetCmd)
	addSubsetFlags(subsetCmd)
	rootCmd.AddCommand(subsetCmd)

	// Reorder command
	reorderCmd := &cobra.Command{
		Use:   "reorder",
		Short: "Print the tests in the order the service predicts",
		RunE:  c.Reorder.Execute,
	}
	addDiscoveryFlags(reorderCmd)
	rootCmd.AddCommand(reorderCmd)

	// Report command
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Upload the results of a saved run",
		Long:  "Upload the events of the local journal, or of a run mirrored to S3, to a test session",
		RunE:  c.Report.Execute,
	}
	reportCmd.Flags().StringVar(&c.runID, "run", "", "Run id of a journal mirrored to S3")
	rootCmd.AddCommand(reportCmd)

	// Runs command
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs mirrored to S3",
		RunE:  c.Runs.Execute,
	}
	rootCmd.AddCommand(runsCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:   "failures",
		Short: "View test failures interactively",
		Long:  "Display test failures from the last test run in an interactive viewer",
		RunE:  c.Failures.Execute,
	}
	failuresCmd.Flags().StringVar(&c.runID, "run", "", "Run id of a journal mirrored to S3")
	rootCmd.AddCommand(failuresCmd)
}
