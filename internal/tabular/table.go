// Package tabular decodes uploaded delimited-text and spreadsheet files into
// a generic table and normalizes that table into address records.
package tabular

// Table is an ordered sequence of named-column rows as produced by a format
// decoder. Rows are aligned with Columns; a short row reads as blank cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Cell returns the value of the named column in the given row, or "" when the
// column does not exist or the row is shorter than the header.
func (t Table) Cell(row int, column string) string {
	for i, name := range t.Columns {
		if name != column {
			continue
		}
		if row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
			return ""
		}
		return t.Rows[row][i]
	}
	return ""
}

// HasColumn reports whether the table contains the named column.
func (t Table) HasColumn(column string) bool {
	for _, name := range t.Columns {
		if name == column {
			return true
		}
	}
	return false
}
