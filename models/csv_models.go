package models

// WriteOptions contains configuration for CSV writing
type WriteOptions struct {
	Directory string
	Filename  string
}

// Table is a flat table loaded from a downloaded artifact
type Table struct {
	Columns []string
	Rows    [][]string
}

// Width returns the number of columns, taking ragged rows into account
func (t *Table) Width() int {
	width := len(t.Columns)
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Pad extends the header and every row to the table width
func (t *Table) Pad() {
	width := t.Width()
	t.Columns = padRow(t.Columns, width)
	for i, row := range t.Rows {
		t.Rows[i] = padRow(row, width)
	}
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// NewTable builds a table from raw records, treating the first record as the header
func NewTable(records [][]string) *Table {
	table := &Table{}
	if len(records) == 0 {
		return table
	}
	table.Columns = records[0]
	table.Rows = records[1:]
	table.Pad()
	return table
}
