// Package geo implements the spatial half of nearby discovery: the exact
// haversine distance used for the authoritative radius cut, and the
// geohash cell cover used as a coarse prefilter so the store only scans
// rows in cells that can possibly intersect the query circle.  The cover
// may over-select; it must never under-select.  The haversine check is
// always applied afterwards and is never approximated.
package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine
// formula.
const EarthRadiusMeters = 6371000.0

// StoredPrecision is the geohash length persisted on every spot row
// (precision 7 ≈ 153 m cells).  Cover prefixes are at most this long.
const StoredPrecision = 7

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies inside the legal coordinate
// ranges: latitude in [-90,90] and longitude in [-180,180].
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the haversine distance between a and b in meters.  It
// is symmetric and zero for identical coordinates.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Encode returns the stored-precision geohash for p.
func Encode(p Point) string {
	return geohash.EncodeWithPrecision(p.Latitude, p.Longitude, StoredPrecision)
}

// Geohash cell dimensions at the equator, in meters, indexed by precision
// from 1 to StoredPrecision.  Cell height (the latitude span) is the same
// everywhere on the globe; cell width is an equator figure and shrinks by
// cos(latitude), so even precisions (twice as wide as tall) stop being
// width-safe well before their height would suggest.
var (
	cellHeightMeters = [StoredPrecision + 1]float64{
		0, 4992000, 624000, 156000, 19500, 4890, 610, 153,
	}
	cellWidthMeters = [StoredPrecision + 1]float64{
		0, 5009000, 1252000, 156500, 39100, 4890, 1220, 153,
	}
)

// coverPrecision picks the longest prefix length whose cell, at the
// query circle's worst latitude, is still at least radiusMeters in both
// dimensions.  At that precision the center cell plus its eight
// neighbors are guaranteed to contain the whole circle.  The width check
// uses the circle's poleward edge, where cells are narrowest, so the
// cover never under-selects at high latitude.
func coverPrecision(centerLat, radiusMeters float64) uint {
	edgeLat := math.Abs(centerLat) + radiusMeters/111194.9
	if edgeLat > 90 {
		edgeLat = 90
	}
	shrink := math.Cos(edgeLat * math.Pi / 180)
	for p := StoredPrecision; p >= 2; p-- {
		if cellHeightMeters[p] >= radiusMeters && cellWidthMeters[p]*shrink >= radiusMeters {
			return uint(p)
		}
	}
	return 1
}

// CellCover returns the geohash prefixes whose cells jointly contain the
// circle (center, radiusMeters).  The result is the center cell and its
// neighbors at a precision coarse enough that no part of the circle can
// escape them.  Callers turn each prefix into a lexicographic range
// condition on the stored geohash column.
func CellCover(center Point, radiusMeters float64) []string {
	p := coverPrecision(center.Latitude, radiusMeters)
	h := geohash.EncodeWithPrecision(center.Latitude, center.Longitude, p)
	cells := append([]string{h}, geohash.Neighbors(h)...)
	// Neighbor wrap-around at the antimeridian or poles can repeat cells.
	seen := make(map[string]bool, len(cells))
	out := cells[:0]
	for _, c := range cells {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// PrefixUpperBound returns the exclusive upper bound for a lexicographic
// range scan over geohashes starting with prefix.  '{' sorts immediately
// after 'z', the largest character in the geohash alphabet.
func PrefixUpperBound(prefix string) string { return prefix + "{" }
