// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Input       Input  `yaml:"input" json:"input"`
	Output      Output `yaml:"output" json:"output"`

	// H3 resolution of the per-island cell; nil keeps the default, negative disables it
	CellResolution *int `yaml:"cell_resolution,omitempty" json:"cell_resolution,omitempty"`
	Workers        int  `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// Input describes where the project table comes from.
type Input struct {
	Source       string `yaml:"source" json:"source"` // local path or http(s) URL, .csv or .xlsx
	HeaderMarker string `yaml:"header_marker,omitempty" json:"header_marker,omitempty"`
	Sheet        string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
}

// Output lists the files to produce. Empty paths are skipped.
type Output struct {
	JSON     string `yaml:"json,omitempty" json:"json,omitempty"`
	YAML     string `yaml:"yaml,omitempty" json:"yaml,omitempty"`
	GeoJSON  string `yaml:"geojson,omitempty" json:"geojson,omitempty"`
	Tiles    string `yaml:"tiles,omitempty" json:"tiles,omitempty"`
	Zoom     int    `yaml:"zoom,omitempty" json:"zoom,omitempty"`
	TileSize int    `yaml:"tile_size,omitempty" json:"tile_size,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input: Input{
			Source: "OFIDtest1Sheet1.csv",
		},
		Output: Output{
			JSON: "maldives_projects.json",
			Zoom: 6,
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Fields missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Input.Source == "" {
		return fmt.Errorf("input.source is required")
	}
	if c.Output.Zoom < 0 || c.Output.Zoom > 18 {
		return fmt.Errorf("output.zoom %d out of range 0..18", c.Output.Zoom)
	}
	if c.CellResolution != nil && *c.CellResolution > 15 {
		return fmt.Errorf("cell_resolution %d out of range, max 15", *c.CellResolution)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}
