package netcdf

import (
	"fmt"
	"math"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// Dimension names written by WriteGrid, matching ncl_convert2nc output.
const (
	LatDim   = "lat_0"
	LonDim   = "lon_0"
	LevelDim = "lv_DBLL0"
)

// fillValue marks missing cells in written fields.
const fillValue float32 = 1e20

// WriteGrid writes the grid to a classic netCDF file. Fields with more than one
// level are laid out as (lv_DBLL0, lat_0, lon_0), others as (lat_0, lon_0).
// NaN values are written as _FillValue.
func WriteGrid(path string, grid *domain.Grid) (err error) {
	w, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	coords := []struct {
		name, units, long string
		values            []float64
	}{
		{LatDim, "degrees_north", "latitude", grid.Lats},
		{LonDim, "degrees_east", "longitude", grid.Lons},
		{LevelDim, "m", "Depth below land surface", grid.Levels},
	}
	for _, c := range coords {
		if len(c.values) == 0 {
			continue
		}
		attrs, err := attributes(map[string]any{"units": c.units, "long_name": c.long})
		if err != nil {
			return err
		}
		if err := w.AddVar(c.name, api.Variable{
			Values:     toFloat32(c.values),
			Dimensions: []string{c.name},
			Attributes: attrs,
		}); err != nil {
			return fmt.Errorf("write %s: %w", c.name, err)
		}
	}

	codes := make([]string, 0, len(grid.Fields))
	for code := range grid.Fields {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	nLat, nLon := len(grid.Lats), len(grid.Lons)
	for _, code := range codes {
		f := grid.Fields[code]
		if len(f.Values) != max(f.Levels, 1)*nLat*nLon {
			return fmt.Errorf("field %s has %d values for %d levels of %dx%d: %w",
				code, len(f.Values), f.Levels, nLat, nLon, domain.ErrSchemaMismatch)
		}
		attrs, err := attributes(map[string]any{
			"units":      f.Units,
			"long_name":  f.LongName,
			"_FillValue": fillValue,
		})
		if err != nil {
			return err
		}

		v := api.Variable{Attributes: attrs}
		if f.Levels > 1 {
			if len(grid.Levels) != f.Levels {
				return fmt.Errorf("field %s has %d levels, grid axis has %d: %w",
					code, f.Levels, len(grid.Levels), domain.ErrSchemaMismatch)
			}
			v.Dimensions = []string{LevelDim, LatDim, LonDim}
			v.Values = cube(f.Values, f.Levels, nLat, nLon)
		} else {
			v.Dimensions = []string{LatDim, LonDim}
			v.Values = plane(f.Values, nLat, nLon)
		}
		if err := w.AddVar(code, v); err != nil {
			return fmt.Errorf("write %s: %w", code, err)
		}
	}
	return nil
}

func attributes(m map[string]any) (api.AttributeMap, error) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && s == "" {
			delete(m, k)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs, err := util.NewOrderedMap(keys, m)
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	return attrs, nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = fillValue
			continue
		}
		out[i] = float32(v)
	}
	return out
}

func plane(values []float64, nLat, nLon int) [][]float32 {
	out := make([][]float32, nLat)
	for i := range out {
		out[i] = toFloat32(values[i*nLon : (i+1)*nLon])
	}
	return out
}

func cube(values []float64, nLevels, nLat, nLon int) [][][]float32 {
	out := make([][][]float32, nLevels)
	size := nLat * nLon
	for l := range out {
		out[l] = plane(values[l*size:(l+1)*size], nLat, nLon)
	}
	return out
}
