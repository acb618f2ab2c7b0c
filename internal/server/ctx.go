package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/atollmap/assets"
	"github.com/woozymasta/atollmap/internal/dataset"
	"github.com/woozymasta/atollmap/internal/render"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Document        *dataset.Document
	TilesDir        string
	IndexHTML       []byte
	Favicon         []byte
	TransparentTile []byte

	// responses prepared once, the document never changes while serving
	islandsJSON []byte
	geoJSON     []byte
	atollsJSON  []byte
	atolls      map[string][]byte
	etag        string
}

// NewServerContext prepares the API payloads and the viewer page for doc.
// Tiles are served from tilesDir when it exists.
func NewServerContext(doc *dataset.Document, tilesDir string) (*ServerContext, error) {
	log.Info().
		Int("islands", len(doc.Islands)).
		Str("dataset_id", doc.Metadata.DatasetID).
		Msg("Initializing server context")

	s := &ServerContext{
		Document: doc,
		TilesDir: tilesDir,
		atolls:   make(map[string][]byte, len(doc.Metadata.AtollSummaries)),
		etag:     fmt.Sprintf(`"%s"`, doc.Metadata.DatasetID),
	}

	var err error
	if s.islandsJSON, err = json.Marshal(doc); err != nil {
		return nil, fmt.Errorf("encoding islands: %w", err)
	}
	if s.geoJSON, err = json.Marshal(dataset.FeatureCollection(doc.Islands)); err != nil {
		return nil, fmt.Errorf("encoding geojson: %w", err)
	}
	if s.atollsJSON, err = json.Marshal(doc.Metadata.AtollSummaries); err != nil {
		return nil, fmt.Errorf("encoding atolls: %w", err)
	}
	for _, a := range doc.Metadata.AtollSummaries {
		if s.atolls[a.Atoll], err = json.Marshal(a); err != nil {
			return nil, fmt.Errorf("encoding atoll %s: %w", a.Atoll, err)
		}
	}

	if s.IndexHTML, err = assets.Page(assets.PageData{
		Title:       doc.Metadata.Title,
		Description: doc.Metadata.Description,
	}); err != nil {
		return nil, err
	}
	if s.Favicon, err = assets.Favicon(); err != nil {
		return nil, err
	}
	if s.TransparentTile, err = render.Blank(render.DefaultTileSize); err != nil {
		return nil, fmt.Errorf("encoding transparent tile: %w", err)
	}

	if tilesDir == "" {
		log.Trace().Msg("Overlay tiles disabled: no directory configured")
	} else if _, err := os.Stat(tilesDir); os.IsNotExist(err) {
		log.Warn().
			Str("path", tilesDir).
			Msg("Overlay tiles directory not found, serving transparent tiles")
	}

	log.Info().
		Int("atolls", len(s.atolls)).
		Int("index_bytes", len(s.IndexHTML)).
		Msg("Server context initialized successfully")

	return s, nil
}
