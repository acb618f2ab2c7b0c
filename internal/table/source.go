package table

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Options control how a source is read.
type Options struct {
	// HeaderMarker identifies the header row (DefaultHeaderMarker if empty).
	HeaderMarker string
	// Sheet selects the workbook sheet for .xlsx sources.
	Sheet string
}

// DefaultClient is used for remote sources when Load is given a nil client.
var DefaultClient = &http.Client{Timeout: 15 * time.Second}

// Load reads a table from a local path or an http(s) URL. Workbooks are
// detected by the .xlsx extension, everything else is parsed as CSV.
func Load(client *http.Client, source string, opts Options) (*Table, error) {
	data, err := readSource(client, source)
	if err != nil {
		return nil, err
	}

	if isWorkbook(source) {
		log.Debug().Str("source", source).Str("sheet", opts.Sheet).Msg("Reading workbook")
		return ReadXLSX(bytes.NewReader(data), opts.Sheet, opts.HeaderMarker)
	}

	return ReadCSV(bytes.NewReader(data), opts.HeaderMarker)
}

func readSource(client *http.Client, source string) ([]byte, error) {
	if !isRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		return data, nil
	}

	if client == nil {
		client = DefaultClient
	}

	log.Info().Str("url", source).Msg("Downloading source table...")
	resp, err := client.Get(source)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", source, err)
	}

	return data, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func isWorkbook(source string) bool {
	p := source
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil {
			p = u.Path
		}
	}
	return strings.EqualFold(path.Ext(p), ".xlsx")
}
