package render

import (
	"errors"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/atollmap/internal/dataset"
	"github.com/woozymasta/atollmap/internal/geo"
)

var male = Marker{Lat: 4.17, Lng: 73.51, Source: geo.Extracted}

func countTiles(t *testing.T, dir string) int {
	t.Helper()

	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".webp") {
			n++
		}
		return nil
	})
	require.NoError(t, err)

	return n
}

func TestRenderWritesMarkerTiles(t *testing.T) {
	dir := t.TempDir()

	stats := Render([]Marker{male}, Options{Dir: dir, MaxZoom: 3, Concurrency: 2})
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, stats.Written, countTiles(t, dir))

	for z := 0; z <= 3; z++ {
		x, y := geo.LatLngToPixel(male.Lat, male.Lng, z, DefaultTileSize)
		tx, ty := geo.PixelToTile(x, y, z, DefaultTileSize)

		info, err := os.Stat(TilePath(dir, TileCoordinate{Z: z, X: tx, Y: ty}))
		require.NoError(t, err, "zoom %d", z)
		assert.Positive(t, info.Size())
	}

	// the western hemisphere holds no markers
	_, err := os.Stat(TilePath(dir, TileCoordinate{Z: 1, X: 0, Y: 0}))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	opts := Options{Dir: dir, MaxZoom: 2}

	first := Render([]Marker{male}, opts)
	require.Positive(t, first.Written)

	second := Render([]Marker{male}, opts)
	assert.Zero(t, second.Written)
	assert.Equal(t, first.Written, second.Skipped)

	opts.Force = true
	third := Render([]Marker{male}, opts)
	assert.Equal(t, first.Written, third.Written)
}

func TestRenderTileContent(t *testing.T) {
	dir := t.TempDir()
	Render([]Marker{male}, Options{Dir: dir, MaxZoom: 1})

	f, err := os.Open(TilePath(dir, TileCoordinate{}))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	img, err := webp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, DefaultTileSize, img.Bounds().Dx())

	x, y := geo.LatLngToPixel(male.Lat, male.Lng, 0, DefaultTileSize)
	_, _, _, centre := img.At(int(x), int(y)).RGBA()
	assert.Positive(t, centre)

	_, _, _, corner := img.At(2, 2).RGBA()
	assert.Zero(t, corner)
}

func TestLayoutEdgeMarkerSpansTiles(t *testing.T) {
	// the equator and prime meridian meet at the corner of four tiles at zoom 1
	tiles := layout([]Marker{{Lat: 0, Lng: 0, Source: geo.Estimated}}, 1, DefaultTileSize, DefaultRadius)
	require.Len(t, tiles, 4)
	assert.Equal(t, TileCoordinate{Z: 1, X: 0, Y: 0}, tiles[0].coord)
	assert.Equal(t, TileCoordinate{Z: 1, X: 1, Y: 1}, tiles[3].coord)

	assert.Empty(t, layout([]Marker{{Lat: 1, Lng: 1, Source: geo.Unknown}}, 1, DefaultTileSize, DefaultRadius))
}

func TestMarkersFrom(t *testing.T) {
	islands := []dataset.Island{
		{Locality: "a", Coordinates: geo.ResolvedCoordinate{Coordinate: geo.NewCoordinate(1, 2), Source: geo.Extracted}},
		{Locality: "b", Coordinates: geo.ResolvedCoordinate{Coordinate: geo.NoCoordinate(), Source: geo.Unknown}},
		{Locality: "c", Coordinates: geo.ResolvedCoordinate{Coordinate: geo.NewCoordinate(3, 4), Source: geo.Estimated}},
	}

	got := MarkersFrom(islands)
	assert.Equal(t, []Marker{
		{Lat: 1, Lng: 2, Source: geo.Extracted},
		{Lat: 3, Lng: 4, Source: geo.Estimated},
	}, got)
}

func TestBlank(t *testing.T) {
	data, err := Blank(0)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRenderReportsEveryTile(t *testing.T) {
	markers := []Marker{male, {Lat: 0, Lng: 0, Source: geo.Estimated}}
	opts := Options{Dir: t.TempDir(), MaxZoom: 2}

	var mu sync.Mutex
	calls := 0
	opts.OnTile = func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	stats := Render(markers, opts)
	assert.Equal(t, TileCount(markers, opts), calls)
	assert.Equal(t, calls, stats.Written+stats.Skipped+stats.Failed)
}

func TestWriteImageRemovesPartialTile(t *testing.T) {
	orig := encodeTile
	t.Cleanup(func() { encodeTile = orig })

	encodeTile = func(w io.Writer, _ image.Image) error {
		_, _ = w.Write([]byte("RIFF"))
		return errors.New("encoder failed")
	}

	path := filepath.Join(t.TempDir(), "0.webp")
	err := writeImage(path, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderRetriesFailedTile(t *testing.T) {
	dir := t.TempDir()
	opts := Options{Dir: dir, MaxZoom: 1}

	orig := encodeTile
	encodeTile = func(io.Writer, image.Image) error { return errors.New("encoder failed") }
	failed := Render([]Marker{male}, opts)
	encodeTile = orig

	require.Positive(t, failed.Failed)
	assert.Zero(t, failed.Written)
	assert.Zero(t, countTiles(t, dir))

	// without Force the failed tiles are written, not skipped
	retry := Render([]Marker{male}, opts)
	assert.Equal(t, failed.Failed, retry.Written)
	assert.Zero(t, retry.Skipped)
}
