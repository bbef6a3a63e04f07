package matrix

import (
	"slices"
	"strconv"

	"github.com/joseph-ayodele/interview-matrix/constants"
)

// Row maps a column name to its cell. A column missing from the map is a null cell.
type Row map[string]string

// Table is an ordered set of named columns and ordered rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func NewTable(columns ...string) Table {
	return Table{Columns: slices.Clone(columns), Rows: []Row{}}
}

// AddColumn appends name unless it is already a column. It reports whether it was added.
func (t *Table) AddColumn(name string) bool {
	if slices.Contains(t.Columns, name) {
		return false
	}
	t.Columns = append(t.Columns, name)
	return true
}

// Append adds a row; keys that are not yet columns are appended to Columns in the order given.
func (t *Table) Append(keys []string, row Row) {
	for _, k := range keys {
		t.AddColumn(k)
	}
	t.Rows = append(t.Rows, row)
}

// Cell returns the value at (row, column) and whether it is non-null.
func (t Table) Cell(row int, column string) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	v, ok := t.Rows[row][column]
	return v, ok
}

// Column returns every cell of column in row order; null cells read as "".
func (t Table) Column(column string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[column]
	}
	return out
}

func (t Table) Len() int { return len(t.Rows) }

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{Columns: slices.Clone(t.Columns), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// Complete reports whether every column is present and non-empty in every row.
func (t Table) Complete() bool {
	for _, r := range t.Rows {
		for _, c := range t.Columns {
			if v, ok := r[c]; !ok || v == "" {
				return false
			}
		}
	}
	return true
}

// FillPlaceholders rewrites null cells, then empty-string cells, to placeholder across the whole table.
// The two passes are applied to every column, not just the expected ones.
func (t *Table) FillPlaceholders(placeholder string) {
	for _, r := range t.Rows {
		for _, c := range t.Columns {
			if _, ok := r[c]; !ok {
				r[c] = placeholder
			}
		}
	}
	for _, r := range t.Rows {
		for _, c := range t.Columns {
			if r[c] == "" {
				r[c] = placeholder
			}
		}
	}
}

// Fill applies FillPlaceholders with constants.Placeholder.
func (t *Table) Fill() {
	t.FillPlaceholders(constants.Placeholder)
}

// Renumber overwrites column with 1..n in row order. The column is inserted first when absent.
func (t *Table) Renumber(column string) {
	if column == "" {
		return
	}
	if !slices.Contains(t.Columns, column) {
		t.Columns = append([]string{column}, t.Columns...)
	}
	for i, r := range t.Rows {
		r[column] = strconv.Itoa(i + 1)
	}
}
