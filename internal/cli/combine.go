package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmerge/internal/core"
	"github.com/JonMunkholm/csvmerge/internal/export"
)

type combineOptions struct {
	output      string
	format      string
	maxFiles    int
	maxFileSize int64
	workers     int
	strict      bool
}

func newCombineCommand(root *rootOptions) *cobra.Command {
	opts := &combineOptions{}

	cmd := &cobra.Command{
		Use:   "combine [files...]",
		Short: "Combine CSV files into one dataset",
		Long: `Register the given files as one batch and write the combined dataset.

Files that do not end in .csv or cannot be read are skipped with a warning.
The batch is rejected as a whole when it has more files than --max-files.
When nothing is left to combine no output is written.`,
		Example: `  csvmerge combine a.csv b.csv                  # CSV to stdout
  csvmerge combine -o combined.xlsx data/*.csv  # format from the extension
  csvmerge combine --format json a.csv b.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: csv, xlsx, json, yaml (default from -o extension, else csv)")
	cmd.Flags().IntVar(&opts.maxFiles, "max-files", core.DefaultMaxFiles, "maximum number of files in one batch")
	cmd.Flags().Int64Var(&opts.maxFileSize, "max-file-size", core.DefaultMaxFileSize, "maximum size of one file in bytes")
	cmd.Flags().IntVar(&opts.workers, "workers", core.DefaultParseWorkers, "files parsed in parallel")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when the combined set is empty")

	return cmd
}

func runCombine(cmd *cobra.Command, root *rootOptions, opts *combineOptions, paths []string) error {
	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	sess := core.NewSession(core.Options{
		MaxFiles:     opts.maxFiles,
		MaxFileSize:  opts.maxFileSize,
		ParseWorkers: opts.workers,
	})

	uploads := make([]core.Upload, len(paths))
	for i, p := range paths {
		uploads[i] = fileUpload(p)
	}

	result, err := sess.Register(cmd.Context(), uploads)
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}
	reportSkipped(root.stderr, result.Errors)

	combined := sess.Combined()
	if combined.Empty() {
		fmt.Fprintln(root.stderr, "nothing to combine: no rows in the accepted files")
		if opts.strict {
			return ErrNothingCombined
		}
		return nil
	}

	w, closeFn, err := openOutput(root.stdout, opts.output)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, combined); err != nil {
		closeFn()
		return fmt.Errorf("write %s: %w", format, err)
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	fmt.Fprintf(root.stderr, "combined %d files: %d rows, %d columns\n",
		len(result.Added), combined.Len(), len(combined.Columns))
	return nil
}

// resolveFormat picks the explicit format, else the output extension, else CSV.
func resolveFormat(explicit, output string) (export.Format, error) {
	if explicit != "" {
		return export.ParseFormat(strings.ToLower(explicit))
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".xlsx":
		return export.FormatXLSX, nil
	case ".json":
		return export.FormatJSON, nil
	case ".yaml", ".yml":
		return export.FormatYAML, nil
	default:
		return export.FormatCSV, nil
	}
}

// fileUpload reads a file lazily so a missing path surfaces as a per-file
// read failure rather than aborting the batch.
func fileUpload(path string) core.Upload {
	u := core.Upload{
		Name: path,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
	if fi, err := os.Stat(path); err == nil {
		u.Size = fi.Size()
	}
	return u
}

func reportSkipped(w io.Writer, errs []*core.FileError) {
	for _, fe := range errs {
		fmt.Fprintf(w, "warning: skipped %s: %s\n", fe.FileName, core.FormatUserError(fe))
	}
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
