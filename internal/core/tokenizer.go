package core

import "strings"

// Parse splits a CSV document into a header and data rows.
//
// Lines are split on '\n' and blank or whitespace-only lines are dropped.
// The first remaining line is the header. A '"' toggles quoting and is not
// kept; a comma inside quotes is literal. Fields are trimmed. Short rows are
// padded with empty values and fields past the header are dropped.
//
// Quote state is per line, so a field quoted across a newline is split into
// two rows. A doubled quote inside a quoted field is not collapsed into a
// literal quote; it toggles twice and disappears.
//
// Parse never fails. A document with no content lines yields an empty Table.
func Parse(document string) Table {
	lines := contentLines(document)
	if len(lines) == 0 {
		return Table{}
	}

	header := splitFields(lines[0])

	// Duplicate names keep their first position; the last value wins.
	columns := make([]string, 0, len(header))
	target := make([]int, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		pos, ok := seen[name]
		if !ok {
			pos = len(columns)
			seen[name] = pos
			columns = append(columns, name)
		}
		target[i] = pos
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line)
		row := make(Row, len(columns))
		for i := range header {
			if i < len(fields) {
				row[target[i]] = fields[i]
			} else {
				row[target[i]] = ""
			}
		}
		rows = append(rows, row)
	}

	return Table{Columns: columns, Rows: rows}
}

// contentLines returns the lines of document that contain non-space text.
func contentLines(document string) []string {
	raw := strings.Split(document, "\n")
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitFields scans one line into trimmed fields.
func splitFields(line string) []string {
	var (
		fields   []string
		buf      strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(buf.String()))

	return fields
}
