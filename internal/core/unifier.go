package core

// Combine merges tables into one whose columns are the union of every
// input's columns, in first-seen order across tables and headers.
//
// Every input row appears once, in table order then row order, reshaped to
// the union. Columns a source row lacks are filled with "". Tables with no
// rows still contribute their columns. Combine does not modify its inputs.
func Combine(tables []Table) Table {
	if len(tables) == 0 {
		return Table{}
	}

	var (
		columns []string
		seen    = make(map[string]int)
		total   int
	)
	for _, t := range tables {
		for _, col := range t.Columns {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = len(columns)
			columns = append(columns, col)
		}
		total += len(t.Rows)
	}

	rows := make([]Row, 0, total)
	for _, t := range tables {
		// Position of each source column in the union.
		dest := make([]int, len(t.Columns))
		for i, col := range t.Columns {
			dest[i] = seen[col]
		}

		for _, src := range t.Rows {
			row := make(Row, len(columns))
			for i, v := range src {
				if i < len(dest) {
					row[dest[i]] = v
				}
			}
			rows = append(rows, row)
		}
	}

	return Table{Columns: columns, Rows: rows}
}
