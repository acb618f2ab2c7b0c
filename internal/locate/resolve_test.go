package locate

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/atollmap/internal/geo"
)

func TestResolve(t *testing.T) {
	r := NewResolver(MustEstimator())

	t.Run("extracted ignores region", func(t *testing.T) {
		res := r.Resolve(Reference{
			Location: "https://www.google.com/maps/place/X/@7.0113,72.9986,15z",
			Region:   "S",
			Locality: "Hithadhoo",
		})
		assert.Equal(t, geo.Extracted, res.Source)
		assert.Equal(t, MatchAtMarker, res.Matcher)
		lat, lng, ok := res.LatLng()
		require.True(t, ok)
		assert.Equal(t, 7.0113, lat)
		assert.Equal(t, 72.9986, lng)
	})

	t.Run("estimated from region", func(t *testing.T) {
		res := r.Resolve(Reference{Region: "L", Locality: "Fonadhoo"})
		assert.Equal(t, geo.Estimated, res.Source)
		assert.Empty(t, res.Matcher)
		lat, lng, ok := res.LatLng()
		require.True(t, ok)
		assert.Less(t, math.Abs(lat-1.5), 0.05)
		assert.Less(t, math.Abs(lng-73.2), 0.05)
	})

	t.Run("shortened link falls back to estimate", func(t *testing.T) {
		res := r.Resolve(Reference{Location: "https://goo.gl/maps/abc", Region: "K", Locality: "Thulusdhoo"})
		assert.Equal(t, geo.Estimated, res.Source)
	})

	t.Run("unknown", func(t *testing.T) {
		res := r.Resolve(Reference{Location: "https://goo.gl/maps/abc", Region: "??", Locality: "Nowhere"})
		assert.Equal(t, geo.Unknown, res.Source)
		assert.False(t, res.Valid())
		assert.Nil(t, res.Lat())
		assert.Nil(t, res.Lng())
	})
}

func TestResolveAllMatchesSequential(t *testing.T) {
	r := NewResolver(MustEstimator())
	codes := r.Estimator().Codes()

	refs := make([]Reference, 0, 300)
	for i := 0; i < 300; i++ {
		ref := Reference{
			Region:   codes[i%len(codes)],
			Locality: fmt.Sprintf("island-%d", i),
		}
		switch i % 5 {
		case 0:
			ref.Location = fmt.Sprintf("%d.5, 73.%d", i%7, i%9)
		case 1:
			ref.Region = "unknown"
		case 2:
			ref.Location = "https://maps.app.goo.gl/short"
		}
		refs = append(refs, ref)
	}

	parallel := r.ResolveAll(refs, 8)
	require.Len(t, parallel, len(refs))

	for i, ref := range refs {
		want := r.Resolve(ref)
		got := parallel[i]
		assert.Equal(t, want.Source, got.Source, i)
		assert.Equal(t, want.Matcher, got.Matcher, i)

		wlat, wlng, wok := want.LatLng()
		glat, glng, gok := got.LatLng()
		assert.Equal(t, wok, gok, i)
		assert.Equal(t, wlat, glat, i)
		assert.Equal(t, wlng, glng, i)
	}

	assert.Empty(t, r.ResolveAll(nil, 4))
	assert.Len(t, r.ResolveAll(refs[:3], 1), 3)
}

func TestResolvedNeverHalfPresent(t *testing.T) {
	r := NewResolver(MustEstimator())
	inputs := []Reference{
		{},
		{Location: "1.0, 2.0"},
		{Location: "@1.0,2.0,3z"},
		{Location: "x", Region: "K"},
		{Location: "x", Region: "nope"},
	}

	for _, in := range inputs {
		res := r.Resolve(in)
		assert.Equal(t, res.Lat() == nil, res.Lng() == nil, "%+v", in)
	}
}
