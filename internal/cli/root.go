// Package cli provides the csvmerge command tree for combining CSV files
// on disk without running the server.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmerge/internal/logging"
)

// ErrNothingCombined is returned by combine when --strict is set and the
// combined set has no rows.
var ErrNothingCombined = errors.New("combined set is empty")

// rootOptions hold the persistent flags shared by every subcommand.
type rootOptions struct {
	stdout    io.Writer
	stderr    io.Writer
	logLevel  string
	logFormat string
}

// Execute runs the command tree with args and returns the first error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the csvmerge root command writing to the given streams.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "csvmerge",
		Short: "Combine CSV files with different columns into one dataset",
		Long: `csvmerge parses CSV files, unions their headers in first-seen order and
writes one combined dataset. Values missing from a file's columns are left empty.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetupWriter(opts.stderr, opts.logLevel, opts.logFormat)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newCombineCommand(opts))
	root.AddCommand(newInspectCommand(opts))

	return root
}
