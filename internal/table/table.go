// Package table reads the project spreadsheet into named columns and rows.
package table

import (
	"errors"
	"strings"
)

// DefaultHeaderMarker identifies the real header row below the sheet preamble.
const DefaultHeaderMarker = "Atoll,Locality,Population"

// ErrHeaderNotFound is returned when no line contains the header marker.
var ErrHeaderNotFound = errors.New("header row not found")

// Table is a header plus data rows. Column names are trimmed.
type Table struct {
	Header []string
	Rows   []Row

	// Skipped counts preamble lines above the header row.
	Skipped int

	index map[string]int
}

// Row is a single data row bound to its table's header.
type Row struct {
	// Line is the 1-based position of the row in the source.
	Line  int
	cells []string
	index map[string]int
}

func newTable(header []string, skipped int) *Table {
	t := &Table{
		Header:  make([]string, len(header)),
		Skipped: skipped,
		index:   make(map[string]int, len(header)),
	}

	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		}
		t.Header[i] = name

		// first occurrence wins for duplicate headers
		if _, dup := t.index[name]; !dup && name != "" {
			t.index[name] = i
		}
	}

	return t
}

func (t *Table) append(line int, cells []string) {
	t.Rows = append(t.Rows, Row{Line: line, cells: cells, index: t.index})
}

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Get returns the normalised cell in column name.
// Unknown columns and short rows yield an absent value.
func (r Row) Get(name string) Value {
	i, ok := r.index[name]
	if !ok || i >= len(r.cells) {
		return Value{}
	}
	return Normalize(r.cells[i])
}

// First returns the first present value among names, so a column can be
// looked up under several spellings.
func (r Row) First(names ...string) Value {
	for _, name := range names {
		if v := r.Get(name); v.Valid() {
			return v
		}
	}
	return Value{}
}

// Empty reports whether every cell of the row is missing.
func (r Row) Empty() bool {
	for _, c := range r.cells {
		if !IsMissing(c) {
			return false
		}
	}
	return true
}
