package domain

import (
	"fmt"
	"math"
	"sort"
)

// Field is one named variable of a decoded grid. Values are stored row-major
// as [level][lat][lon]; 2-D fields have a single level.
type Field struct {
	Code     string
	Units    string
	LongName string
	Levels   int
	Values   []float64
}

// Grid is a decoded forecast file: shared coordinate axes and the requested
// fields. Longitudes keep the file's native convention.
type Grid struct {
	Lats   []float64
	Lons   []float64
	Levels []float64
	Fields map[string]*Field
}

// Field returns the named field or ErrSchemaMismatch when the grid lacks it.
func (g *Grid) Field(code string) (*Field, error) {
	f, ok := g.Fields[code]
	if !ok {
		return nil, fmt.Errorf("field %s not in grid: %w", code, ErrSchemaMismatch)
	}
	return f, nil
}

// Has reports whether the grid carries the named field.
func (g *Grid) Has(code string) bool {
	_, ok := g.Fields[code]
	return ok
}

// ZeroTo360 reports whether the grid's longitudes use the 0..360 convention.
func (g *Grid) ZeroTo360() bool {
	for _, lon := range g.Lons {
		if lon > 180 {
			return true
		}
	}
	return false
}

func (g *Grid) index(level, i, j int) int {
	return (level*len(g.Lats)+i)*len(g.Lons) + j
}

// Samples flattens the named fields into one Sample per (level, lat, lon) with
// normalized longitudes. All fields must share the same number of levels.
func (g *Grid) Samples(codes ...string) ([]Sample, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("no fields requested: %w", ErrSchemaMismatch)
	}
	fields := make([]*Field, len(codes))
	for k, code := range codes {
		f, err := g.Field(code)
		if err != nil {
			return nil, err
		}
		if k > 0 && f.Levels != fields[0].Levels {
			return nil, fmt.Errorf("field %s has %d levels, %s has %d: %w",
				code, f.Levels, codes[0], fields[0].Levels, ErrSchemaMismatch)
		}
		fields[k] = f
	}

	levels := max(fields[0].Levels, 1)
	out := make([]Sample, 0, levels*len(g.Lats)*len(g.Lons))
	for l := 0; l < levels; l++ {
		for i, lat := range g.Lats {
			for j, lon := range g.Lons {
				idx := g.index(l, i, j)
				values := make([]float64, len(fields))
				for k, f := range fields {
					values[k] = f.Values[idx]
				}
				out = append(out, Sample{
					Lat:    lat,
					Lon:    NormalizeLongitude(lon),
					Level:  l,
					Values: values,
				})
			}
		}
	}
	return out, nil
}

// Interpolate returns the bilinear interpolation of a field at (lat, lon).
// lon may use either convention. Global grids wrap across their longitude
// seam; points beyond the grid edges fail with ErrOutsideGrid.
func (g *Grid) Interpolate(code string, level int, lat, lon float64) (float64, error) {
	f, err := g.Field(code)
	if err != nil {
		return 0, err
	}
	if level < 0 || level >= max(f.Levels, 1) {
		return 0, fmt.Errorf("field %s: level %d out of range: %w", code, level, ErrOutsideGrid)
	}

	i, ty, ok := bracket(g.Lats, lat)
	if !ok {
		return 0, fmt.Errorf("latitude %g: %w", lat, ErrOutsideGrid)
	}
	i1 := min(i+1, len(g.Lats)-1)

	j, j1, tx, ok := g.lonBracket(ToGridLongitude(lon, g.ZeroTo360()))
	if !ok {
		return 0, fmt.Errorf("longitude %g: %w", lon, ErrOutsideGrid)
	}

	v := f.Values
	south := lerp(v[g.index(level, i, j)], v[g.index(level, i, j1)], tx)
	north := lerp(v[g.index(level, i1, j)], v[g.index(level, i1, j1)], tx)
	return lerp(south, north, ty), nil
}

// lonBracket finds the longitude columns around x, wrapping from the last
// column to the first for grids that cover the full circle.
func (g *Grid) lonBracket(x float64) (int, int, float64, bool) {
	n := len(g.Lons)
	if i, t, ok := bracket(g.Lons, x); ok {
		return i, min(i+1, n-1), t, true
	}
	if n < 2 {
		return 0, 0, 0, false
	}
	step := g.Lons[1] - g.Lons[0]
	first, last := g.Lons[0], g.Lons[n-1]
	if step <= 0 || math.Abs(last+step-(first+360)) > step*1e-3 {
		return 0, 0, 0, false
	}
	if x < first {
		x += 360
	}
	if x > last && x < last+step {
		return n - 1, 0, (x - last) / step, true
	}
	return 0, 0, 0, false
}

// bracket finds i such that x lies between coords[i] and coords[i+1], and the
// fractional position of x in that interval. coords may ascend or descend.
func bracket(coords []float64, x float64) (int, float64, bool) {
	n := len(coords)
	switch {
	case n == 0:
		return 0, 0, false
	case n == 1:
		return 0, 0, coords[0] == x
	}

	ascending := coords[n-1] >= coords[0]
	k := sort.Search(n, func(k int) bool {
		if ascending {
			return coords[k] >= x
		}
		return coords[k] <= x
	})
	if k == n {
		return 0, 0, false
	}
	if coords[k] == x {
		return k, 0, true
	}
	if k == 0 {
		return 0, 0, false
	}
	i := k - 1
	return i, (x - coords[i]) / (coords[k] - coords[i]), true
}

// lerp interpolates between a and b. Endpoints are returned exactly so a
// missing neighbour with zero weight does not poison the result.
func lerp(a, b, t float64) float64 {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return (1-t)*a + t*b
}
