package locate

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCentroidTable(t *testing.T) {
	e, err := NewEstimator()
	require.NoError(t, err)

	assert.NotEmpty(t, e.Version())
	assert.Len(t, e.Regions(), 20)
	assert.Len(t, e.Codes(), 20)

	k, ok := e.Centroid("K")
	require.True(t, ok)
	assert.Equal(t, "Kaafu", k.Name)
	assert.Equal(t, 4.8, k.Lat)
	assert.Equal(t, 73.5, k.Lng)

	gn, ok := e.Centroid("Gn")
	require.True(t, ok)
	assert.Equal(t, -0.3, gn.Lat)

	// codes are case sensitive: HDh and Dh are different atolls
	_, ok = e.Centroid("hdh")
	assert.False(t, ok)
}

func TestParseEstimatorErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "regions: [::"},
		{"empty", "version: x\nregions: []\n"},
		{"missing code", "version: x\nregions:\n  - {name: A, lat: 1, lng: 2}\n"},
		{"duplicate", "version: x\nregions:\n  - {code: A, lat: 1, lng: 2}\n  - {code: A, lat: 3, lng: 4}\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseEstimator([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestEstimateDeterministic(t *testing.T) {
	e1 := MustEstimator()
	e2 := MustEstimator()

	for _, locality := range []string{"Dhidhdhoo", "Hithadhoo", "", "Maafushi", "Ƶ unicode ✓"} {
		a := e1.Estimate("HA", locality)
		b := e1.Estimate("HA", locality)
		c := e2.Estimate("HA", locality)

		alat, alng, ok := a.LatLng()
		require.True(t, ok)
		blat, blng, _ := b.LatLng()
		clat, clng, _ := c.LatLng()

		assert.Equal(t, math.Float64bits(alat), math.Float64bits(blat), locality)
		assert.Equal(t, math.Float64bits(alng), math.Float64bits(blng), locality)
		assert.Equal(t, math.Float64bits(alat), math.Float64bits(clat), locality)
		assert.Equal(t, math.Float64bits(alng), math.Float64bits(clng), locality)
	}
}

// Values must not change between runs, builds or machines: published
// documents cite them.
func TestEstimateGolden(t *testing.T) {
	tests := []struct {
		region, locality string
		lat, lng         uint64
	}{
		{"HA", "Dhidhdhoo", 0x401b26167ec16666, 0x405245d0d15b1666},
		{"K", "Maafushi", 0x401319b0be0b6666, 0x40525e0130dd9666},
	}

	e := MustEstimator()
	for _, tc := range tests {
		t.Run(tc.locality, func(t *testing.T) {
			lat, lng, ok := e.Estimate(tc.region, tc.locality).LatLng()
			require.True(t, ok)
			assert.Equal(t, tc.lat, math.Float64bits(lat), "lat %v", lat)
			assert.Equal(t, tc.lng, math.Float64bits(lng), "lng %v", lng)
		})
	}
}

func TestEstimateOffsetDependsOnlyOnLocality(t *testing.T) {
	e := MustEstimator()

	k := e.Estimate("K", "Maafushi")
	s := e.Estimate("S", "Maafushi")
	kc, _ := e.Centroid("K")
	sc, _ := e.Centroid("S")

	klat, klng, _ := k.LatLng()
	slat, slng, _ := s.LatLng()

	assert.InDelta(t, klat-kc.Lat, slat-sc.Lat, 1e-12)
	assert.InDelta(t, klng-kc.Lng, slng-sc.Lng, 1e-12)

	other := e.Estimate("K", "Guraidhoo")
	olat, olng, _ := other.LatLng()
	assert.False(t, olat == klat && olng == klng, "different localities should not collide")
}

func TestEstimateBounds(t *testing.T) {
	e := MustEstimator()

	for _, r := range e.Regions() {
		for i := 0; i < 200; i++ {
			locality := fmt.Sprintf("%s-island-%d", r.Code, i)
			lat, lng, ok := e.Estimate(r.Code, locality).LatLng()
			require.True(t, ok)
			assert.Less(t, math.Abs(lat-r.Lat), JitterSpan/2, locality)
			assert.Less(t, math.Abs(lng-r.Lng), JitterSpan/2, locality)
		}
	}
}

func TestEstimateUnknownRegion(t *testing.T) {
	e := MustEstimator()

	for _, region := range []string{"", "XX", "k", "Kaafu", " K"} {
		for _, locality := range []string{"", "Male", "Thinadhoo"} {
			c := e.Estimate(region, locality)
			assert.False(t, c.Valid())
			assert.Nil(t, c.Lat())
			assert.Nil(t, c.Lng())
		}
	}
}

func TestUnitRange(t *testing.T) {
	assert.Greater(t, unit(0), 0.0)
	assert.Less(t, unit(math.MaxUint32), 1.0)
	assert.InDelta(t, 0.5, unit(1<<31), 1e-9)
}
