package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/woozymasta/atollmap/internal/config"
	"github.com/woozymasta/atollmap/internal/dataset"
	"github.com/woozymasta/atollmap/internal/locate"
	"github.com/woozymasta/atollmap/internal/logger"
	"github.com/woozymasta/atollmap/internal/render"
	"github.com/woozymasta/atollmap/internal/table"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"       env:"CONFIG_FILE"    description:"Path to configuration file"`
	Input       string `short:"i" long:"input"        env:"INPUT_SOURCE"   description:"Source table, local path or URL (.csv or .xlsx)"`
	Sheet       string `short:"s" long:"sheet"        env:"INPUT_SHEET"    description:"Workbook sheet name"`
	Marker      string `short:"m" long:"marker"       env:"HEADER_MARKER"  description:"Text identifying the header row"`
	JSON        string `short:"o" long:"out"          env:"OUTPUT_JSON"    description:"JSON document output path"`
	YAML        string `short:"y" long:"yaml"         env:"OUTPUT_YAML"    description:"YAML document output path"`
	GeoJSON     string `short:"g" long:"geojson"      env:"OUTPUT_GEOJSON" description:"GeoJSON output path"`
	Tiles       string `short:"t" long:"tiles"        env:"OUTPUT_TILES"   description:"Overlay tiles directory"`
	ZoomLimit   int    `short:"z" long:"zoom-limit"   env:"ZOOM_LIMIT"     description:"Tiles zoom limit"`
	Concurrency int    `short:"p" long:"concurrency"  env:"CONCURRENCY"    description:"Concurrency"`
	Force       bool   `short:"f" long:"force"        description:"Force overwrite of existing tiles"`
}

func main() {
	// variables from .env.local are defaults, real environment wins
	_ = godotenv.Load(".env.local")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		cfg, err = config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}
	opts.apply(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("source", cfg.Input.Source).
		Int("workers", cfg.Workers).
		Msg("Starting conversion")

	tbl, err := table.Load(nil, cfg.Input.Source, table.Options{
		HeaderMarker: cfg.Input.HeaderMarker,
		Sheet:        cfg.Input.Sheet,
	})
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Fatal().Err(err).Str("source", cfg.Input.Source).Msg("Source table not found")
	case errors.Is(err, table.ErrHeaderNotFound):
		log.Fatal().Err(err).Str("source", cfg.Input.Source).Msg("Header row not found")
	case err != nil:
		log.Fatal().Err(err).Str("source", cfg.Input.Source).Msg("Failed to read source table")
	}

	log.Info().
		Int("rows", len(tbl.Rows)).
		Int("preamble_lines", tbl.Skipped).
		Int("columns", len(tbl.Header)).
		Msg("Source table loaded")

	estimator, err := locate.NewEstimator()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load atoll centroids")
	}
	log.Debug().
		Str("version", estimator.Version()).
		Strs("atolls", estimator.Codes()).
		Msg("Atoll centroids loaded")

	matchers := make([]string, 0, len(locate.Matchers()))
	for _, m := range locate.Matchers() {
		matchers = append(matchers, m.Name)
	}
	log.Debug().Strs("order", matchers).Msg("Coordinate matchers")

	builder := dataset.NewBuilder(locate.NewResolver(estimator))
	if cfg.Title != "" {
		builder.Title = cfg.Title
	}
	if cfg.Description != "" {
		builder.Description = cfg.Description
	}
	if cfg.CellResolution != nil {
		builder.CellResolution = *cfg.CellResolution
	}
	builder.Workers = cfg.Workers

	doc, report, err := builder.Build(tbl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to assemble document")
	}

	for _, line := range report.Skipped {
		log.Debug().Int("line", line).Msg("Row skipped: missing atoll or locality")
	}
	for name, n := range report.Matchers {
		log.Debug().Str("matcher", name).Int("count", n).Msg("Coordinates extracted")
	}

	if err := writeOutputs(cfg, doc); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}

	if cfg.Output.Tiles != "" {
		renderTiles(cfg, doc, opts.Force)
	}

	info := doc.Metadata.CoordinatesInfo
	log.Info().
		Int("islands", doc.Metadata.TotalIslands).
		Int("skipped_rows", len(report.Skipped)).
		Int("blank_rows", report.Blank).
		Int("extracted_from_maps", info.ExtractedFromMaps).
		Int("estimated_from_atoll", info.EstimatedFromAtoll).
		Int("missing", info.Missing).
		Str("dataset_id", doc.Metadata.DatasetID).
		Msg("Conversion finished successfully")
}

// apply overrides configuration values with flags that were set.
func (o *Options) apply(cfg *config.Config) {
	if o.Input != "" {
		cfg.Input.Source = o.Input
	}
	if o.Sheet != "" {
		cfg.Input.Sheet = o.Sheet
	}
	if o.Marker != "" {
		cfg.Input.HeaderMarker = o.Marker
	}
	if o.JSON != "" {
		cfg.Output.JSON = o.JSON
	}
	if o.YAML != "" {
		cfg.Output.YAML = o.YAML
	}
	if o.GeoJSON != "" {
		cfg.Output.GeoJSON = o.GeoJSON
	}
	if o.Tiles != "" {
		cfg.Output.Tiles = o.Tiles
	}
	if o.ZoomLimit > 0 {
		cfg.Output.Zoom = o.ZoomLimit
	}
	if o.Concurrency > 0 {
		cfg.Workers = o.Concurrency
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
}

// writeOutputs writes every configured document file and stops at the first
// failure.
func writeOutputs(cfg *config.Config, doc *dataset.Document) error {
	outputs := []struct {
		path   string
		format dataset.Format
	}{
		{cfg.Output.JSON, dataset.FormatJSON},
		{cfg.Output.YAML, dataset.FormatYAML},
		{cfg.Output.GeoJSON, dataset.FormatGeoJSON},
	}

	for _, out := range outputs {
		if out.path == "" {
			continue
		}

		if err := dataset.WriteFile(out.path, doc, out.format); err != nil {
			return fmt.Errorf("writing %s output %s: %w", out.format, out.path, err)
		}

		log.Info().
			Str("path", out.path).
			Str("format", string(out.format)).
			Msg("Output written")
	}

	return nil
}

func renderTiles(cfg *config.Config, doc *dataset.Document, force bool) {
	markers := render.MarkersFrom(doc.Islands)
	opts := render.Options{
		Dir:         cfg.Output.Tiles,
		MaxZoom:     cfg.Output.Zoom,
		TileSize:    cfg.Output.TileSize,
		Concurrency: cfg.Workers,
		Force:       force,
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(render.TileCount(markers, opts),
			progressbar.OptionSetDescription("Rendering tiles"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		opts.OnTile = func() { _ = bar.Add(1) }
	}

	log.Info().
		Str("dir", opts.Dir).
		Int("markers", len(markers)).
		Int("zoom_limit", opts.MaxZoom).
		Msg("Starting tile rendering")

	stats := render.Render(markers, opts)
	if bar != nil {
		_ = bar.Finish()
	}

	log.Info().
		Int("written", stats.Written).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("Tiles rendered")
}
