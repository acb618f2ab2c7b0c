// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"encoding/json"
	"fmt"
)

// Coordinate is an optional latitude/longitude pair.
// Both values are present or both are absent, never one without the other.
type Coordinate struct {
	lat *float64
	lng *float64
}

// NewCoordinate returns a coordinate with both values present.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{lat: &lat, lng: &lng}
}

// NoCoordinate returns a coordinate with both values absent.
func NoCoordinate() Coordinate {
	return Coordinate{}
}

// Valid reports whether the coordinate carries a value.
func (c Coordinate) Valid() bool {
	return c.lat != nil && c.lng != nil
}

// LatLng returns the pair and whether it is present.
func (c Coordinate) LatLng() (lat, lng float64, ok bool) {
	if !c.Valid() {
		return 0, 0, false
	}

	return *c.lat, *c.lng, true
}

// Lat returns the latitude or nil when absent.
func (c Coordinate) Lat() *float64 {
	if !c.Valid() {
		return nil
	}
	v := *c.lat
	return &v
}

// Lng returns the longitude or nil when absent.
func (c Coordinate) Lng() *float64 {
	if !c.Valid() {
		return nil
	}
	v := *c.lng
	return &v
}

// String implements fmt.Stringer.
func (c Coordinate) String() string {
	lat, lng, ok := c.LatLng()
	if !ok {
		return "(none)"
	}

	return fmt.Sprintf("(%.6f, %.6f)", lat, lng)
}

// Provenance records how a coordinate was obtained.
type Provenance string

// Provenance values understood by the map client.
const (
	Extracted Provenance = "extracted"
	Estimated Provenance = "estimated"
	Unknown   Provenance = "unknown"
)

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	switch p {
	case Extracted, Estimated, Unknown:
		return []byte(p), nil
	case "":
		return []byte(Unknown), nil
	}

	return nil, fmt.Errorf("invalid provenance %q", string(p))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Provenance) UnmarshalText(b []byte) error {
	switch v := Provenance(b); v {
	case Extracted, Estimated, Unknown:
		*p = v
		return nil
	}

	return fmt.Errorf("invalid provenance %q", string(b))
}

// ResolvedCoordinate is a coordinate tagged with its provenance.
type ResolvedCoordinate struct {
	Coordinate
	Source Provenance
}

type resolvedJSON struct {
	Latitude  *float64   `json:"latitude" yaml:"latitude"`
	Longitude *float64   `json:"longitude" yaml:"longitude"`
	Source    Provenance `json:"source" yaml:"source"`
}

func (r ResolvedCoordinate) wire() resolvedJSON {
	src := r.Source
	if src == "" || !r.Valid() {
		src = Unknown
	}

	return resolvedJSON{Latitude: r.Lat(), Longitude: r.Lng(), Source: src}
}

// MarshalJSON emits {"latitude", "longitude", "source"}; absent values are null.
func (r ResolvedCoordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// UnmarshalJSON rejects half-present coordinates.
func (r *ResolvedCoordinate) UnmarshalJSON(b []byte) error {
	var w resolvedJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	switch {
	case w.Latitude != nil && w.Longitude != nil:
		r.Coordinate = NewCoordinate(*w.Latitude, *w.Longitude)
	case w.Latitude == nil && w.Longitude == nil:
		r.Coordinate = NoCoordinate()
	default:
		return fmt.Errorf("coordinate has only one of latitude/longitude")
	}
	r.Source = w.Source

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r ResolvedCoordinate) MarshalYAML() (interface{}, error) {
	return r.wire(), nil
}
