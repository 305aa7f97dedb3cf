package core

import (
	"bufio"
	"io"
	"strings"
)

// Serialize renders t as CSV text.
//
// The header is the column names joined by commas, unquoted. Each row
// follows on its own line with values escaped by EscapeField. Lines are
// separated by '\n' with no trailing newline.
func Serialize(t Table) string {
	var b strings.Builder
	// WriteCSV cannot fail on a strings.Builder.
	_ = WriteCSV(&b, t)
	return b.String()
}

// WriteCSV streams the Serialize rendering of t to w.
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(strings.Join(t.Columns, ","))
	for _, row := range t.Rows {
		bw.WriteByte('\n')
		for i := range t.Columns {
			if i > 0 {
				bw.WriteByte(',')
			}
			if i < len(row) {
				bw.WriteString(EscapeField(row[i]))
			}
		}
	}

	return bw.Flush()
}

// EscapeField quotes v if it contains a comma, a double quote or a line
// feed, doubling any embedded quotes. Other values are returned as is.
func EscapeField(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
