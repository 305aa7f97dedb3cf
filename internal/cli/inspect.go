package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmerge/internal/core"
)

func newInspectCommand(root *rootOptions) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect file.csv [file.csv...]",
		Short: "Show the columns and row count of CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				sess := core.NewSession(core.Options{MaxFiles: 1})
				result, err := sess.Register(cmd.Context(), []core.Upload{fileUpload(path)})
				if err != nil {
					return err
				}
				if len(result.Errors) > 0 {
					reportSkipped(root.stderr, result.Errors)
					failed++
					continue
				}

				t := result.Added[0].Table
				fmt.Fprintf(root.stdout, "%s\n", path)
				fmt.Fprintf(root.stdout, "  columns (%d): %s\n", len(t.Columns), strings.Join(t.Columns, ", "))
				fmt.Fprintf(root.stdout, "  rows: %d\n", t.Len())
				for _, row := range t.Head(rows).Rows {
					fmt.Fprintf(root.stdout, "  %s\n", formatRow(row))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be inspected", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "print the first N rows")
	return cmd
}

// formatRow renders one row the way it appears in the combined CSV.
func formatRow(row core.Row) string {
	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = core.EscapeField(v)
	}
	return strings.Join(fields, ",")
}
