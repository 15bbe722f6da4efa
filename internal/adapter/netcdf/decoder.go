// Package netcdf decodes gridded forecast files in the self-describing
// netCDF/HDF5 format, as written by PyNIO/ncl_convert2nc from GRIB2 sources.
package netcdf

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// Coordinate variable names tried in order.
var (
	latNames = []string{"lat_0", "latitude", "lat"}
	lonNames = []string{"lon_0", "longitude", "lon"}
)

// Decoder implements domain.GridDecoder on top of go-native-netcdf.
type Decoder struct{}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads the coordinate axes and each requested field present in the
// file. The file is closed before Decode returns.
func (d *Decoder) Decode(path string, fields []string) (*domain.Grid, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrInputNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, domain.ErrDecode)
	}
	defer nc.Close()

	latName, lats, err := coordinate(nc, latNames)
	if err != nil {
		return nil, fmt.Errorf("%s: latitude: %w", path, err)
	}
	lonName, lons, err := coordinate(nc, lonNames)
	if err != nil {
		return nil, fmt.Errorf("%s: longitude: %w", path, err)
	}

	grid := &domain.Grid{Lats: lats, Lons: lons, Fields: make(map[string]*domain.Field, len(fields))}
	available := make(map[string]bool)
	for _, name := range nc.ListVariables() {
		available[name] = true
	}

	for _, code := range fields {
		if !available[code] {
			continue
		}
		v, err := nc.GetVariable(code)
		if err != nil {
			return nil, fmt.Errorf("%s: read %s: %v: %w", path, code, err, domain.ErrDecode)
		}
		f, levelDim, err := toField(code, v, latName, lonName, len(lats), len(lons))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		grid.Fields[code] = f

		if levelDim != "" && grid.Levels == nil && available[levelDim] {
			if lv, err := nc.GetVariable(levelDim); err == nil {
				if vals, err := flatten(lv.Values); err == nil {
					grid.Levels = vals
				}
			}
		}
	}
	return grid, nil
}

func coordinate(nc api.Group, names []string) (string, []float64, error) {
	for _, name := range names {
		v, err := nc.GetVariable(name)
		if err != nil {
			continue
		}
		vals, err := flatten(v.Values)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %v: %w", name, err, domain.ErrDecode)
		}
		if len(v.Dimensions) != 1 || len(vals) == 0 {
			return "", nil, fmt.Errorf("%s is not a 1-D coordinate: %w", name, domain.ErrSchemaMismatch)
		}
		return v.Dimensions[0], vals, nil
	}
	return "", nil, fmt.Errorf("none of %v present: %w", names, domain.ErrSchemaMismatch)
}

// toField checks that the variable's trailing dimensions are (lat, lon) and
// folds any leading dimensions into levels. It returns the name of the level
// dimension for 3-D fields.
func toField(code string, v *api.Variable, latDim, lonDim string, nLat, nLon int) (*domain.Field, string, error) {
	dims := v.Dimensions
	n := len(dims)
	if n < 2 || dims[n-2] != latDim || dims[n-1] != lonDim {
		return nil, "", fmt.Errorf("field %s dimensions %v do not end in (%s, %s): %w",
			code, dims, latDim, lonDim, domain.ErrSchemaMismatch)
	}

	values, err := flatten(v.Values)
	if err != nil {
		return nil, "", fmt.Errorf("field %s: %v: %w", code, err, domain.ErrDecode)
	}
	plane := nLat * nLon
	if plane == 0 || len(values)%plane != 0 {
		return nil, "", fmt.Errorf("field %s has %d values for a %dx%d grid: %w",
			code, len(values), nLat, nLon, domain.ErrSchemaMismatch)
	}

	if fill, ok := numericAttr(v.Attributes, "_FillValue"); ok {
		for i, x := range values {
			if x == fill {
				values[i] = math.NaN()
			}
		}
	}

	var levelDim string
	if n == 3 {
		levelDim = dims[0]
	}
	return &domain.Field{
		Code:     code,
		Units:    stringAttr(v.Attributes, "units"),
		LongName: stringAttr(v.Attributes, "long_name"),
		Levels:   len(values) / plane,
		Values:   values,
	}, levelDim, nil
}

func stringAttr(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func numericAttr(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	vals, err := flatten(v)
	if err != nil || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// flatten converts a scalar or arbitrarily nested slice of numbers into a
// row-major []float64.
func flatten(v any) ([]float64, error) {
	var out []float64
	var walk func(rv reflect.Value) error
	walk = func(rv reflect.Value) error {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				if err := walk(rv.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, rv.Float())
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			out = append(out, float64(rv.Int()))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			out = append(out, float64(rv.Uint()))
		case reflect.Interface:
			return walk(rv.Elem())
		default:
			return fmt.Errorf("unsupported value type %s", rv.Type())
		}
		return nil
	}
	if v == nil {
		return nil, errors.New("nil values")
	}
	if err := walk(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return out, nil
}
