package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads a workbook sheet (the first one when sheet is empty). The
// header is the first row whose cells, joined with commas, contain marker.
func ReadXLSX(r io.Reader, sheet, marker string) (*Table, error) {
	if marker == "" {
		marker = DefaultHeaderMarker
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	headerIdx := -1
	for i, row := range rows {
		if strings.Contains(joinCells(row), marker) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: no row of sheet %q contains %q", ErrHeaderNotFound, sheet, marker)
	}

	t := newTable(rows[headerIdx], headerIdx)
	for i := headerIdx + 1; i < len(rows); i++ {
		// GetRows omits trailing empty rows but keeps inner ones
		if len(rows[i]) == 0 {
			continue
		}
		t.append(i+1, rows[i])
	}

	return t, nil
}

func joinCells(row []string) string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	return strings.Join(cells, ",")
}
