// Package render draws resolved islands into an XYZ tile pyramid of WebP overlays.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/woozymasta/atollmap/internal/dataset"
	"github.com/woozymasta/atollmap/internal/geo"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// Defaults used when Options fields are zero.
const (
	DefaultMaxZoom     = 6
	DefaultTileSize    = 256
	DefaultRadius      = 5.0
	DefaultConcurrency = 20

	// tiles are drawn at this scale and downsampled for smooth edges
	supersample = 2
	quality     = 85
)

// Marker colours per provenance.
var (
	ExtractedColor = color.NRGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
	EstimatedColor = color.NRGBA{R: 0xf9, G: 0xa8, B: 0x25, A: 0xff}
	outlineColor   = color.NRGBA{R: 0x1b, G: 0x1b, B: 0x1b, A: 0xc0}
)

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Marker is a dot on the overlay.
type Marker struct {
	Lat, Lng float64
	Source   geo.Provenance
}

// Options control rendering.
type Options struct {
	Dir         string
	MaxZoom     int
	TileSize    int
	Radius      float64 // marker radius in output pixels
	Concurrency int
	Force       bool // overwrite existing tiles

	// OnTile is called after each tile is written, skipped or failed.
	OnTile func()
}

// Stats counts tiles by outcome.
type Stats struct {
	Written int
	Skipped int
	Failed  int
}

// MarkersFrom returns a marker for each island with a coordinate.
func MarkersFrom(islands []dataset.Island) []Marker {
	out := make([]Marker, 0, len(islands))
	for _, is := range islands {
		lat, lng, ok := is.Coordinates.LatLng()
		if !ok {
			continue
		}
		out = append(out, Marker{Lat: lat, Lng: lng, Source: is.Coordinates.Source})
	}
	return out
}

func (o Options) withDefaults() Options {
	if o.MaxZoom <= 0 {
		o.MaxZoom = DefaultMaxZoom
	}
	if o.TileSize <= 0 {
		o.TileSize = DefaultTileSize
	}
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// TilePath returns {dir}/{z}/{x}/{y}.webp.
func TilePath(dir string, c TileCoordinate) string {
	return filepath.Join(
		dir,
		fmt.Sprintf("%d", c.Z),
		fmt.Sprintf("%d", c.X),
		fmt.Sprintf("%d", c.Y)+".webp",
	)
}

// Render writes every tile from zoom 0 to opts.MaxZoom that contains at least
// part of a marker. Tiles without markers are not produced.
func Render(markers []Marker, opts Options) Stats {
	opts = opts.withDefaults()

	var written, skipped, failed int64

	for z := 0; z <= opts.MaxZoom; z++ {
		tiles := layout(markers, z, opts.TileSize, opts.Radius)

		log.Debug().
			Int("zoom", z).
			Int("tiles", len(tiles)).
			Msg("Rendering zoom level")

		var wg sync.WaitGroup
		sem := make(chan struct{}, opts.Concurrency)

		for _, t := range tiles {
			wg.Add(1)
			sem <- struct{}{}

			go func(t tile) {
				defer wg.Done()
				defer func() { <-sem }()
				if opts.OnTile != nil {
					defer opts.OnTile()
				}

				outPath := TilePath(opts.Dir, t.coord)

				if !opts.Force {
					if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
						atomic.AddInt64(&skipped, 1)
						return
					}
				}

				if err := writeTile(outPath, t, opts); err != nil {
					log.Error().Err(err).Str("path", outPath).Msg("Failed to write tile")
					atomic.AddInt64(&failed, 1)
					return
				}
				atomic.AddInt64(&written, 1)
			}(t)
		}
		wg.Wait()
	}

	return Stats{Written: int(written), Skipped: int(skipped), Failed: int(failed)}
}

// TileCount returns how many tiles Render visits for markers.
func TileCount(markers []Marker, opts Options) int {
	opts = opts.withDefaults()

	n := 0
	for z := 0; z <= opts.MaxZoom; z++ {
		n += len(layout(markers, z, opts.TileSize, opts.Radius))
	}
	return n
}

// dot is a marker in global pixel space of one zoom level.
type dot struct {
	x, y float64
	col  color.NRGBA
}

type tile struct {
	coord TileCoordinate
	dots  []dot
}

// layout groups markers into the tiles their dots touch at zoom z, sorted by x then y.
func layout(markers []Marker, z, tileSize int, radius float64) []tile {
	byCoord := map[TileCoordinate]*tile{}
	reach := radius + 1.5

	for _, m := range markers {
		col, ok := markerColor(m.Source)
		if !ok {
			continue
		}

		x, y := geo.LatLngToPixel(m.Lat, m.Lng, z, tileSize)
		d := dot{x: x, y: y, col: col}

		minX, minY := geo.PixelToTile(x-reach, y-reach, z, tileSize)
		maxX, maxY := geo.PixelToTile(x+reach, y+reach, z, tileSize)

		for tx := minX; tx <= maxX; tx++ {
			for ty := minY; ty <= maxY; ty++ {
				c := TileCoordinate{Z: z, X: tx, Y: ty}
				t, exists := byCoord[c]
				if !exists {
					t = &tile{coord: c}
					byCoord[c] = t
				}
				t.dots = append(t.dots, d)
			}
		}
	}

	out := make([]tile, 0, len(byCoord))
	for _, t := range byCoord {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].coord.X != out[j].coord.X {
			return out[i].coord.X < out[j].coord.X
		}
		return out[i].coord.Y < out[j].coord.Y
	})

	return out
}

func markerColor(p geo.Provenance) (color.NRGBA, bool) {
	switch p {
	case geo.Extracted:
		return ExtractedColor, true
	case geo.Estimated:
		return EstimatedColor, true
	default:
		return color.NRGBA{}, false
	}
}

func drawTile(t tile, tileSize int, radius float64) *image.RGBA {
	big := tileSize * supersample
	canvas := image.NewRGBA(image.Rect(0, 0, big, big))

	originX := float64(t.coord.X * tileSize)
	originY := float64(t.coord.Y * tileSize)

	for _, d := range t.dots {
		cx := (d.x - originX) * supersample
		cy := (d.y - originY) * supersample
		r := radius * supersample

		fillCircle(canvas, cx, cy, r+1.5*supersample, outlineColor)
		fillCircle(canvas, cx, cy, r, d.col)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), canvas, canvas.Bounds(), draw.Over, nil)

	return dst
}

func fillCircle(dst *image.RGBA, cx, cy, r float64, col color.NRGBA) {
	rect := image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r))+1, int(math.Ceil(cy+r))+1,
	).Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	draw.DrawMask(dst, rect, image.NewUniform(col), image.Point{}, &circle{cx: cx, cy: cy, r: r}, rect.Min, draw.Over)
}

// circle is an alpha mask of a filled disc.
type circle struct {
	cx, cy, r float64
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(c.cx-c.r)), int(math.Floor(c.cy-c.r)),
		int(math.Ceil(c.cx+c.r))+1, int(math.Ceil(c.cy+c.r))+1,
	)
}

func (c *circle) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - c.cx
	dy := float64(y) + 0.5 - c.cy
	if dx*dx+dy*dy <= c.r*c.r {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

func writeTile(outPath string, t tile, opts Options) error {
	img := drawTile(t, opts.TileSize, opts.Radius)

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	return writeImage(outPath, img)
}

var encodeTile = func(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: quality})
}

// writeImage leaves no file behind when encoding fails, so a later run
// without Force does not take a truncated tile for a finished one.
func writeImage(outPath string, img image.Image) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}

	if err := encodeTile(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(outPath)
		return err
	}

	return nil
}

// Blank returns an encoded fully transparent tile.
func Blank(tileSize int) ([]byte, error) {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
