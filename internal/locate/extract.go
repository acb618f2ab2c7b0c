// Package locate resolves island coordinates from map links, falling back to
// a deterministic estimate around the atoll centre.
package locate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/woozymasta/atollmap/internal/geo"
)

// Matcher finds a latitude/longitude pair in a location reference.
// Pattern must capture latitude in group 1 and longitude in group 2.
type Matcher struct {
	Name    string
	Pattern *regexp.Regexp
}

// Matcher names, in evaluation order.
const (
	MatchDirectPair = "direct_pair"
	MatchAtMarker   = "at_marker"
	MatchLLParam    = "ll_param"
	MatchQParam     = "q_param"
)

const number = `([-+]?\d+\.?\d*)`

// matchers is evaluated in order and the first pattern that matches wins.
// The direct pair must run first: it only matches a bare "lat, lng" string.
var matchers = []Matcher{
	{
		// "7.011340988007471, 72.99857858303288"
		Name:    MatchDirectPair,
		Pattern: regexp.MustCompile(`^` + number + `\s*,\s*` + number + `$`),
	},
	{
		// ".../place/Foo/@7.0113,72.9986,15z/data=..."
		Name:    MatchAtMarker,
		Pattern: regexp.MustCompile(`@` + number + `,` + number + `,\d+\.?\d*z?`),
	},
	{
		// "...?ll=5.5,73.2&z=12"
		Name:    MatchLLParam,
		Pattern: regexp.MustCompile(`ll=` + number + `,` + number),
	},
	{
		// "...?q=1.234,73.456"
		Name:    MatchQParam,
		Pattern: regexp.MustCompile(`q=` + number + `,` + number),
	},
}

// Matchers returns the extraction patterns in evaluation order.
func Matchers() []Matcher {
	out := make([]Matcher, len(matchers))
	copy(out, matchers)
	return out
}

// Extract returns the coordinate embedded in ref, or an absent coordinate.
// It never fails: malformed and unsupported references (e.g. shortened
// links) simply yield no match.
func Extract(ref string) geo.Coordinate {
	c, _ := ExtractWith(ref)
	return c
}

// ExtractWith is Extract that also returns the name of the matcher that
// produced the result, or "" when nothing matched.
func ExtractWith(ref string) (geo.Coordinate, string) {
	s := strings.TrimSpace(strings.Map(asciiSpace, ref))
	if s == "" {
		return geo.NoCoordinate(), ""
	}

	for _, m := range matchers {
		groups := m.Pattern.FindStringSubmatch(s)
		if groups == nil {
			continue
		}

		// A matching pattern with unusable numbers ends extraction for this
		// reference; later patterns are not consulted.
		lat, ok1 := parseFinite(groups[1])
		lng, ok2 := parseFinite(groups[2])
		if !ok1 || !ok2 {
			return geo.NoCoordinate(), ""
		}

		return geo.NewCoordinate(lat, lng), m.Name
	}

	return geo.NoCoordinate(), ""
}

// asciiSpace folds Unicode spaces (NBSP, thin space, ...) to ' ', which the
// patterns' \s matches.
func asciiSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}

	return v, true
}
