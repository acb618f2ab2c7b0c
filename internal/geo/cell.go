package geo

import (
	"github.com/uber/h3-go/v4"
)

// DefaultCellResolution groups islands into H3 cells of roughly 5 km².
const DefaultCellResolution = 7

// Cell returns the H3 cell index of c at res as a hex string.
// It reports false for absent coordinates or an invalid resolution.
func Cell(c Coordinate, res int) (string, bool) {
	lat, lng, ok := c.LatLng()
	if !ok {
		return "", false
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), res)
	if err != nil {
		return "", false
	}

	return cell.String(), true
}
