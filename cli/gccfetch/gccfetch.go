package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glorpus-work/gccfetch/internal/cli"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/spf13/cobra"
)

// exitCancelled is the conventional status of a process stopped by SIGINT.
const exitCancelled = 130

var (
	configPath   string
	verbose      bool
	noColor      bool
	outputFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		if errors.Is(err, errors.ErrCancelled) {
			os.Exit(exitCancelled)
		}
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gccfetch",
		Short: "Fetch a MinGW GCC toolchain",
		Long: `gccfetch installs a MinGW GCC toolchain into a local cache:
- parallel ranged downloads with a sequential fallback and retries
- archive verification and toolchain validation
- reuse of existing installations and downloaded archives`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "log format (text, json)")

	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.NoColor = &noColor
	cli.OutputFormat = &outputFormat

	cmd.AddCommand(
		cli.NewInstallCmd(),
		cli.NewStatusCmd(),
		cli.NewVerifyCmd(),
		cli.NewConfigCmd(),
		cli.NewCacheCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
