package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"abverdict/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit statuses
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	// Load environment variables from .env file when present
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		if errors.IsValidation(err) {
			return exitValidation
		}
		return exitFailure
	}
	return exitOK
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "abverdict",
		Short:         "Decide two-group A/B experiments from a CSV or Excel export",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (defaults to LOG_LEVEL)")

	rootCmd.AddCommand(
		newAnalyzeCmd(&logLevel),
		newColumnsCmd(),
		newGenerateCmd(),
	)
	return rootCmd
}
