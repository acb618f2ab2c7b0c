// Package server handles HTTP requests and middleware.
package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const etagCap = 64

// Routes registers every handler on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/islands", s.HandleIslands)
	mux.HandleFunc("/api/islands.geojson", s.HandleGeoJSON)
	mux.HandleFunc("/api/atolls", s.HandleAtolls)
	mux.HandleFunc("/api/atolls/", s.HandleAtolls)
	mux.HandleFunc("/tiles/", s.HandleTile)
	mux.HandleFunc("/favicon.svg", s.HandleFavicon)
	mux.HandleFunc("/", s.HandleIndex)
	return mux
}

// HandleIslands serves the full document.
func (s *ServerContext) HandleIslands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.islandsJSON, "application/json")
}

// HandleGeoJSON serves resolved islands as a FeatureCollection.
func (s *ServerContext) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.geoJSON, "application/geo+json")
}

// HandleAtolls serves all atoll summaries, or one at /api/atolls/{code}.
func (s *ServerContext) HandleAtolls(w http.ResponseWriter, r *http.Request) {
	code := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/atolls"), "/")
	if code == "" {
		s.writeJSON(w, r, s.atollsJSON, "application/json")
		return
	}

	body, ok := s.atolls[code]
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, r, body, "application/json")
}

// writeJSON sends a prepared payload; the dataset id is a content hash and doubles as ETag.
func (s *ServerContext) writeJSON(w http.ResponseWriter, r *http.Request, body []byte, contentType string) {
	if match := r.Header.Get("If-None-Match"); match == s.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", s.etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	// Ignoring error as we cannot handle client disconnects
	_, _ = w.Write(body)
}

// HandleFavicon serves the site icon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the viewer page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleTile serves /tiles/{z}/{x}/{y}.webp, or a transparent tile when none was rendered.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	// parts: tiles, z, x, y.webp
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || !strings.HasSuffix(parts[3], ".webp") {
		http.NotFound(w, r)
		return
	}

	// numeric components only, to prevent path probing
	z, x, y := parts[1], parts[2], strings.TrimSuffix(parts[3], ".webp")
	for _, p := range []string{z, x, y} {
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			http.NotFound(w, r)
			return
		}
	}

	if s.TilesDir != "" {
		path := filepath.Join(s.TilesDir, z, x, y+".webp")
		if s.serveFile(w, r, path, "image/webp") {
			return
		}
	}

	// cache transparent tile
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(s.TransparentTile)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}
