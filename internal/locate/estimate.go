package locate

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/MichaelTJones/pcg"
	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/atollmap/internal/geo"
	"gopkg.in/yaml.v3"
)

// JitterSpan is the full width, in degrees, of the square an estimate may
// land in around its region centroid.
const JitterSpan = 0.1

// fixed PCG stream selector, so the same seed always yields the same sequence
const pcgSequence = 0xda3e39cb94b95bdb

//go:embed centroids.yaml
var centroidsYAML []byte

// Region is a centroid table entry.
type Region struct {
	Code string  `yaml:"code" json:"code"`
	Name string  `yaml:"name" json:"name"`
	Lat  float64 `yaml:"lat" json:"lat"`
	Lng  float64 `yaml:"lng" json:"lng"`
}

type centroidTable struct {
	Version string   `yaml:"version"`
	Regions []Region `yaml:"regions"`
}

// Estimator derives approximate coordinates from a region centroid and a
// per-locality offset. It is read-only after construction and safe for
// concurrent use.
type Estimator struct {
	version string
	regions map[string]Region
	order   []string
}

// NewEstimator builds an estimator from the embedded centroid table.
func NewEstimator() (*Estimator, error) {
	return parseEstimator(centroidsYAML)
}

// MustEstimator is NewEstimator that panics on a broken embedded table.
func MustEstimator() *Estimator {
	e, err := NewEstimator()
	if err != nil {
		panic(err)
	}
	return e
}

func parseEstimator(data []byte) (*Estimator, error) {
	var t centroidTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing centroid table: %w", err)
	}
	if len(t.Regions) == 0 {
		return nil, fmt.Errorf("centroid table %q has no regions", t.Version)
	}

	e := &Estimator{
		version: t.Version,
		regions: make(map[string]Region, len(t.Regions)),
		order:   make([]string, 0, len(t.Regions)),
	}
	for _, r := range t.Regions {
		if r.Code == "" {
			return nil, fmt.Errorf("centroid table %q: region without code", t.Version)
		}
		if _, dup := e.regions[r.Code]; dup {
			return nil, fmt.Errorf("centroid table %q: duplicate region %q", t.Version, r.Code)
		}
		e.regions[r.Code] = r
		e.order = append(e.order, r.Code)
	}

	return e, nil
}

// Version returns the centroid table version.
func (e *Estimator) Version() string {
	return e.version
}

// Regions returns the table entries in file order.
func (e *Estimator) Regions() []Region {
	out := make([]Region, 0, len(e.order))
	for _, code := range e.order {
		out = append(out, e.regions[code])
	}
	return out
}

// Centroid returns the centroid of region.
func (e *Estimator) Centroid(region string) (Region, bool) {
	r, ok := e.regions[region]
	return r, ok
}

// Codes returns the region codes sorted alphabetically.
func (e *Estimator) Codes() []string {
	codes := append([]string(nil), e.order...)
	sort.Strings(codes)
	return codes
}

// Estimate returns the region centroid shifted by an offset in
// [-JitterSpan/2, +JitterSpan/2) on each axis, derived only from locality.
// Unknown regions yield an absent coordinate.
func (e *Estimator) Estimate(region, locality string) geo.Coordinate {
	r, ok := e.regions[region]
	if !ok {
		return geo.NoCoordinate()
	}

	rng := pcg.NewPCG32()
	rng.Seed(xxhash.Sum64String(locality), pcgSequence)

	// explicit conversions round each product, no fused multiply-add
	latOffset := float64((unit(rng.Random()) - 0.5) * JitterSpan)
	lngOffset := float64((unit(rng.Random()) - 0.5) * JitterSpan)

	return geo.NewCoordinate(r.Lat+latOffset, r.Lng+lngOffset)
}

// unit maps a 32-bit draw onto the midpoints of 2^32 equal cells of [0, 1),
// keeping offsets strictly inside the jitter square.
func unit(v uint32) float64 {
	return (float64(v) + 0.5) / (1 << 32)
}
