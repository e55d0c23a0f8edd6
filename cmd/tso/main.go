package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tso/internal/cli"
	"tso/internal/cli/commands"
	"tso/internal/client"
	"tso/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	client.Version = version

	// Create root command
	rootCmd := &cobra.Command{
		Use:           "tso",
		Short:         "Test selection and result reporting",
		Long:          `Reorder or subset a test suite using a remote prediction service and report every test result back to it in batches, without ever blocking or breaking the test run.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if errors.Is(err, commands.ErrTestsFailed) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
