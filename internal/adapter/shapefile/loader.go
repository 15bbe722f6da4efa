// Package shapefile loads boundary regions from ESRI shapefiles.
package shapefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// feature is one decoded shapefile row.
type feature struct {
	Row        int
	Geometry   geom.Polygonal
	Attributes map[string]string
}

// Loader reads the polygon features of a shapefile together with a fixed set
// of attribute columns. No reprojection is applied.
type Loader struct {
	path     string
	fields   []string
	features []feature
}

// Load decodes every feature of the shapefile at path, keeping the named
// attribute columns. Non-polygon features fail with domain.ErrDecode.
func Load(path string, fields ...string) (*Loader, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrInputNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, domain.ErrDecode)
	}
	defer dec.Close()

	l := &Loader{path: path, fields: fields}
	for row := 0; ; row++ {
		g, attrs, more := dec.DecodeRowFields(fields...)
		if !more {
			break
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("%s row %d: geometry %T is not a polygon: %w", path, row, g, domain.ErrDecode)
		}
		clean := make(map[string]string, len(attrs))
		for k, v := range attrs {
			clean[k] = strings.TrimSpace(v)
		}
		l.features = append(l.features, feature{Row: row, Geometry: poly, Attributes: clean})
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", path, err, domain.ErrDecode)
	}
	return l, nil
}

// Select returns the single feature whose attributes match sel. Zero matches
// fail with domain.ErrRegionNotFound, more than one with
// domain.ErrAmbiguousRegion.
func (l *Loader) Select(sel domain.Selector) (*domain.Region, error) {
	for _, f := range sel.Fields() {
		if !l.hasField(f) {
			return nil, fmt.Errorf("%s: selector field %s was not loaded: %w", l.path, f, domain.ErrSchemaMismatch)
		}
	}

	var matches []feature
	for _, f := range l.features {
		if sel.Matches(f.Attributes) {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: no feature matches %s: %w", l.path, sel, domain.ErrRegionNotFound)
	case 1:
		return newRegion(matches[0])
	default:
		rows := make([]string, len(matches))
		for i, m := range matches {
			rows[i] = strconv.Itoa(m.Row)
		}
		return nil, fmt.Errorf("%s: %d features match %s (rows %s): %w",
			l.path, len(matches), sel, strings.Join(rows, ","), domain.ErrAmbiguousRegion)
	}
}

// All returns every feature as its own region, in file order.
func (l *Loader) All() ([]*domain.Region, error) {
	out := make([]*domain.Region, 0, len(l.features))
	for _, f := range l.features {
		r, err := newRegion(f)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Merged combines every feature into a single region, the way a country
// boundary file with one or more parts is treated as one area.
func (l *Loader) Merged(id string) (*domain.Region, error) {
	if len(l.features) == 0 {
		return nil, fmt.Errorf("%s: no features: %w", l.path, domain.ErrRegionNotFound)
	}
	var mp geom.MultiPolygon
	for _, f := range l.features {
		mp = append(mp, f.Geometry.Polygons()...)
	}
	attrs := make(map[string]string)
	if len(l.features) == 1 {
		for k, v := range l.features[0].Attributes {
			attrs[k] = v
		}
	}
	attrs["NAME"] = id
	return domain.NewRegion(id, mp, attrs)
}

func (l *Loader) hasField(name string) bool {
	for _, f := range l.fields {
		if f == name {
			return true
		}
	}
	return false
}

func newRegion(f feature) (*domain.Region, error) {
	id := f.Attributes["NAME"]
	if id == "" {
		id = "row-" + strconv.Itoa(f.Row)
	}
	return domain.NewRegion(id, f.Geometry, f.Attributes)
}
