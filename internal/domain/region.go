package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// Region is a named boundary geometry used as a geographic filter. Coordinates
// are (longitude, latitude) in the same reference system as the grid data; no
// reprojection is applied. Regions are immutable once built.
type Region struct {
	ID         string
	Attributes map[string]string
	Geometry   geom.Polygonal

	box BoundingBox
}

// NewRegion builds a Region and derives its bounding box from every vertex of
// every ring. Geometries without vertices are rejected.
func NewRegion(id string, g geom.Polygonal, attrs map[string]string) (*Region, error) {
	if g == nil {
		return nil, fmt.Errorf("region %q: nil geometry: %w", id, ErrDecode)
	}
	box, ok := deriveBoundingBox(g)
	if !ok {
		return nil, fmt.Errorf("region %q: geometry has no vertices: %w", id, ErrDecode)
	}
	return &Region{ID: id, Attributes: attrs, Geometry: g, box: box}, nil
}

func deriveBoundingBox(g geom.Polygonal) (BoundingBox, bool) {
	box := BoundingBox{MinLat: math.Inf(1), MaxLat: math.Inf(-1)}
	all := newLonSpan()
	ringsOneSided := true

	for _, poly := range g.Polygons() {
		for _, ring := range poly {
			rs := newLonSpan()
			for _, p := range ring {
				box.MinLat = min(box.MinLat, p.Y)
				box.MaxLat = max(box.MaxLat, p.Y)
				rs.add(p.X)
				all.add(p.X)
			}
			if rs.n > 0 && !rs.oneSided() {
				ringsOneSided = false
			}
		}
	}
	if all.n == 0 {
		return BoundingBox{}, false
	}

	box.MinLon, box.MaxLon = all.min, all.max

	// Every ring sits on one side of the prime meridian, so each ring's planar
	// extent maps to one contiguous interval in 0..360 and the wrapped box
	// still covers all of them.
	plainWidth := all.max - all.min
	shiftedWidth := all.shiftedMax - all.shiftedMin
	if ringsOneSided && shiftedWidth < plainWidth && all.shiftedMin <= 180 && all.shiftedMax > 180 {
		box.MinLon = all.shiftedMin
		box.MaxLon = all.shiftedMax - 360
	}
	return box, true
}

// BoundingBox returns the region's inclusive envelope. It is always a superset
// of the area accepted by Contains.
func (r *Region) BoundingBox() BoundingBox {
	return r.box
}

// CrossesAntimeridian reports whether the bounding box wraps across 180°.
func (r *Region) CrossesAntimeridian() bool {
	return r.box.Wraps()
}

// Bounds returns the planar envelope of the geometry, used for spatial indexing.
func (r *Region) Bounds() *geom.Bounds {
	return r.Geometry.Bounds()
}

// Contains reports whether the point lies inside the region or on its
// boundary. Interior rings are treated as holes. lon must be normalized.
func (r *Region) Contains(lat, lon float64) bool {
	return geom.Point{X: lon, Y: lat}.Within(r.Geometry) != geom.Outside
}

// Centroid returns the area-weighted centroid as (lat, lon).
func (r *Region) Centroid() (float64, float64) {
	c := r.Geometry.Centroid()
	return c.Y, c.X
}

// Buffer returns a circular region of radiusDeg degrees around the centroid,
// approximated with the given number of segments. The ring is clockwise, the
// outer-ring orientation used by shapefiles. A circle reaching past ±180° is
// split at the seam into a two-part MultiPolygon so every vertex stays in
// -180..180; its bounding box then wraps.
func (r *Region) Buffer(radiusDeg float64, segments int) (*Region, error) {
	if radiusDeg <= 0 || radiusDeg >= 180 {
		return nil, fmt.Errorf("region %q: buffer radius must be in (0, 180), got %g", r.ID, radiusDeg)
	}
	if segments < 3 {
		segments = 3
	}
	lat, lon := r.Centroid()
	lon = NormalizeLongitude(lon)
	ring := make(geom.Path, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := -2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, geom.Point{
			X: lon + radiusDeg*math.Cos(theta),
			Y: max(-90, min(90, lat+radiusDeg*math.Sin(theta))),
		})
	}
	ring = append(ring, ring[0])
	circle := geom.Polygon{ring}
	var seam float64
	switch {
	case lon+radiusDeg > 180:
		seam = 180
	case lon-radiusDeg < -180:
		seam = -180
	default:
		return NewRegion(r.ID, circle, r.Attributes)
	}

	var parts geom.MultiPolygon
	for _, p := range circle.Intersection(lonBand(-180, 180)).Polygons() {
		parts = appendPart(parts, p, 0)
	}
	for _, p := range circle.Intersection(lonBand(seam, 3*seam)).Polygons() {
		parts = appendPart(parts, p, -math.Copysign(360, seam))
	}
	if len(parts) == 1 {
		return NewRegion(r.ID, parts[0], r.Attributes)
	}
	return NewRegion(r.ID, parts, r.Attributes)
}

// lonBand is a pole-to-pole rectangle between two meridians.
func lonBand(a, b float64) geom.Polygon {
	west, east := min(a, b), max(a, b)
	return geom.Polygon{{
		{X: west, Y: -91},
		{X: west, Y: 91},
		{X: east, Y: 91},
		{X: east, Y: -91},
		{X: west, Y: -91},
	}}
}

// appendPart shifts p by dLon, clamps it into -180..180 and closes its rings.
// Empty results of the clip are dropped.
func appendPart(parts geom.MultiPolygon, p geom.Polygon, dLon float64) geom.MultiPolygon {
	if len(p) == 0 {
		return parts
	}
	out := make(geom.Polygon, 0, len(p))
	for _, ring := range p {
		if len(ring) < 3 {
			continue
		}
		shifted := make(geom.Path, len(ring), len(ring)+1)
		for i, pt := range ring {
			shifted[i] = geom.Point{X: max(-180, min(180, pt.X+dLon)), Y: pt.Y}
		}
		if shifted[0] != shifted[len(shifted)-1] {
			shifted = append(shifted, shifted[0])
		}
		out = append(out, shifted)
	}
	if len(out) == 0 {
		return parts
	}
	return append(parts, out)
}

// Name returns a display name built from the attribute values, falling back to
// the region ID.
func (r *Region) Name() string {
	if v := r.Attributes["NAME"]; v != "" {
		return v
	}
	return r.ID
}

// Selector picks features by exact attribute equality, e.g. NAME=Houston and
// ST=TX. An empty selector matches every feature.
type Selector map[string]string

// Matches reports whether every selector field equals the feature's value.
func (s Selector) Matches(attrs map[string]string) bool {
	for k, v := range s {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

// Fields returns the selector's attribute names in sorted order.
func (s Selector) Fields() []string {
	fields := make([]string, 0, len(s))
	for k := range s {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func (s Selector) String() string {
	parts := make([]string, 0, len(s))
	for _, k := range s.Fields() {
		parts = append(parts, k+"="+s[k])
	}
	return strings.Join(parts, ",")
}

// ParseSelector parses "NAME|ST" style place strings against the given field
// names, e.g. ParseSelector("Houston|TX", "NAME", "ST").
func ParseSelector(value string, fields ...string) (Selector, error) {
	parts := strings.Split(value, "|")
	if len(parts) != len(fields) {
		return nil, fmt.Errorf("selector %q: want %d '|'-separated values for %s", value, len(fields), strings.Join(fields, ","))
	}
	s := make(Selector, len(fields))
	for i, f := range fields {
		s[f] = strings.TrimSpace(parts[i])
	}
	return s, nil
}

// ParseBoundingBox parses "minlon,maxlon,minlat,maxlat".
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box %q: want minlon,maxlon,minlat,maxlat", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bounding box %q: %q is not a number", s, p)
		}
		v[i] = f
	}
	box := BoundingBox{MinLon: v[0], MaxLon: v[1], MinLat: v[2], MaxLat: v[3]}
	if box.MinLat > box.MaxLat || box.MinLon > box.MaxLon {
		return BoundingBox{}, fmt.Errorf("bounding box %q: minimum exceeds maximum", s)
	}
	return box, nil
}

// BoxRegion builds a rectangular region covering box.
func BoxRegion(id string, box BoundingBox) (*Region, error) {
	ring := geom.Path{
		{X: box.MinLon, Y: box.MinLat},
		{X: box.MinLon, Y: box.MaxLat},
		{X: box.MaxLon, Y: box.MaxLat},
		{X: box.MaxLon, Y: box.MinLat},
		{X: box.MinLon, Y: box.MinLat},
	}
	return NewRegion(id, geom.Polygon{ring}, map[string]string{"NAME": id})
}
