package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses CSV text whose real header is the first line containing
// marker. Lines above it (titles, merged group headers) are discarded.
func ReadCSV(r io.Reader, marker string) (*Table, error) {
	if marker == "" {
		marker = DefaultHeaderMarker
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	start, skipped := findHeaderLine(data, marker)
	if start < 0 {
		return nil, fmt.Errorf("%w: no line contains %q", ErrHeaderNotFound, marker)
	}

	cr := csv.NewReader(bytes.NewReader(data[start:]))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}

	t := newTable(header, skipped)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		t.append(skipped+line, rec)
	}

	return t, nil
}

// findHeaderLine returns the byte offset of the first line containing marker
// and the number of lines before it, or -1 when there is none.
func findHeaderLine(data []byte, marker string) (offset, lines int) {
	for offset < len(data) {
		end := bytes.IndexByte(data[offset:], '\n')
		next := len(data)
		if end >= 0 {
			next = offset + end + 1
		}

		line := strings.TrimRight(string(data[offset:next]), "\r\n")
		if strings.Contains(line, marker) {
			return offset, lines
		}

		offset = next
		lines++
	}

	return -1, lines
}
