package domain

import "fmt"

// NormalizeLongitude maps a 0..360 longitude into -180..180. Values already at
// or below 180 are returned unchanged, so applying it twice is the same as once.
func NormalizeLongitude(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}

// ToGridLongitude maps a -180..180 longitude into a grid's native convention.
// For 0..360 grids negative longitudes are shifted up by 360.
func ToGridLongitude(lon float64, zeroTo360 bool) float64 {
	if zeroTo360 && lon < 0 {
		return lon + 360
	}
	return NormalizeLongitude(lon)
}

// BoundingBox is an inclusive latitude/longitude envelope in -180..180 degrees.
// When MinLon > MaxLon the box wraps across the 180th meridian and covers
// [MinLon, 180] plus [-180, MaxLon].
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Wraps reports whether the box crosses the 180th meridian.
func (b BoundingBox) Wraps() bool {
	return b.MinLon > b.MaxLon
}

// Contains reports whether (lat, lon) lies inside or on the box. lon must
// already be normalized.
func (b BoundingBox) Contains(lat, lon float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.Wraps() {
		return lon >= b.MinLon || lon <= b.MaxLon
	}
	return lon >= b.MinLon && lon <= b.MaxLon
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("lat[%g,%g] lon[%g,%g]", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}

// lonSpan tracks the longitude extent of a vertex set in both the -180..180
// and the 0..360 conventions.
type lonSpan struct {
	min, max               float64
	shiftedMin, shiftedMax float64
	n                      int
}

func newLonSpan() lonSpan {
	return lonSpan{min: 181, max: -181, shiftedMin: 361, shiftedMax: -1}
}

func (s *lonSpan) add(lon float64) {
	s.n++
	s.min = min(s.min, lon)
	s.max = max(s.max, lon)
	shifted := lon
	if shifted < 0 {
		shifted += 360
	}
	s.shiftedMin = min(s.shiftedMin, shifted)
	s.shiftedMax = max(s.shiftedMax, shifted)
}

// oneSided reports whether every longitude in the span is on the same side of
// the prime meridian.
func (s lonSpan) oneSided() bool {
	return s.min >= 0 || s.max < 0
}
