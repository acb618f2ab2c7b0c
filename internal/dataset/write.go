package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/woozymasta/atollmap/internal/geo"
	"gopkg.in/yaml.v3"
)

// Format selects a document encoding.
type Format string

// Supported output formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatGeoJSON Format = "geojson"
)

// Encode writes doc to w in the given format.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()

	case FormatGeoJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(FeatureCollection(doc.Islands))

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// FeatureCollection returns a Point feature per island with a coordinate.
func FeatureCollection(islands []Island) geo.GeoJSONFeatureCollection {
	fc := geo.NewFeatureCollection(len(islands))

	for _, is := range islands {
		props := map[string]interface{}{
			"atoll":      is.Atoll,
			"locality":   is.Locality,
			"source":     is.Coordinates.Source,
			"population": is.Population,
		}
		if is.Cell != "" {
			props["h3_cell"] = is.Cell
		}

		if f, ok := geo.PointFeature(is.Coordinates.Coordinate, props); ok {
			fc.Features = append(fc.Features, f)
		}
	}

	return fc
}

// WriteFile encodes doc into path, creating parent directories.
func WriteFile(path string, doc *Document, format Format) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()

	if err := Encode(f, doc, format); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// ReadFile loads a JSON document written by WriteFile.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &doc, nil
}
