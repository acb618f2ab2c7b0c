package geo

import "math"

// MaxLat is the latitude limit of the Web Mercator projection.
const MaxLat = 85.05112878

// LatLngToPixel projects a WGS84 position to global Web Mercator pixel
// coordinates at the given zoom, for a tile grid of 2^zoom tiles of tileSize px.
func LatLngToPixel(lat, lng float64, zoom, tileSize int) (x, y float64) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	worldSize := float64(tileSize) * float64(int(1)<<zoom)

	// lon: [-180..180] -> x: [0..worldSize]
	x = (lng + 180.0) / 360.0 * worldSize

	// Forward Mercator projection, y grows southwards
	latRad := lat * math.Pi / 180.0
	mercatorY := math.Log(math.Tan(math.Pi/4 + latRad/2))
	y = (1 - mercatorY/math.Pi) / 2 * worldSize

	return x, y
}

// PixelToTile returns the tile containing the global pixel position.
func PixelToTile(x, y float64, zoom, tileSize int) (tx, ty int) {
	maxTile := (1 << zoom) - 1

	tx = clampTile(int(math.Floor(x/float64(tileSize))), maxTile)
	ty = clampTile(int(math.Floor(y/float64(tileSize))), maxTile)

	return tx, ty
}

func clampTile(v, maxTile int) int {
	if v < 0 {
		return 0
	}
	if v > maxTile {
		return maxTile
	}
	return v
}
