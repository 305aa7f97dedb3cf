// Package core provides the business logic for combining CSV files.
// This package has no UI dependencies and can be used by any frontend.
package core

import "time"

// Row holds the cell values of one record, aligned with the owning
// Table's Columns. Position i is the value of Columns[i].
type Row []string

// Table is an ordered sequence of rows sharing one column list.
// Columns are unique and kept in first-seen order.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Index returns a lookup from column name to position.
func (t Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		idx[col] = i
	}
	return idx
}

// Value returns the value of column col in row i.
// The second result is false if the row or column does not exist.
func (t Table) Value(i int, col string) (string, bool) {
	if i < 0 || i >= len(t.Rows) {
		return "", false
	}
	for pos, c := range t.Columns {
		if c == col {
			row := t.Rows[i]
			if pos < len(row) {
				return row[pos], true
			}
			return "", true
		}
	}
	return "", false
}

// RowMap returns row i as a column name to value map.
func (t Table) RowMap(i int) map[string]string {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	row := t.Rows[i]
	m := make(map[string]string, len(t.Columns))
	for pos, col := range t.Columns {
		if pos < len(row) {
			m[col] = row[pos]
		} else {
			m[col] = ""
		}
	}
	return m
}

// Head returns a table with at most n rows. The rows are shared, not copied.
func (t Table) Head(n int) Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// SourceFile is a document that has been accepted into a session.
type SourceFile struct {
	ID      string
	Name    string
	Size    int64
	AddedAt time.Time
	Table   Table
}

// Rows returns the number of data rows parsed from the file.
func (f SourceFile) Rows() int {
	return f.Table.Len()
}

// Columns returns the file's header in order.
func (f SourceFile) Columns() []string {
	return f.Table.Columns
}

// Artifact is a downloadable rendering of the combined dataset.
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// Default artifact naming for the combined CSV.
const (
	ArtifactName        = "combined-data.csv"
	ArtifactContentType = "text/csv"
)
