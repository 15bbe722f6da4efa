package netcdf

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

const (
	tmpCode  = "TMP_P0_L103_GLL0"
	soilCode = "SOILW_P0_2L106_GLL0"
)

func fixtureGrid() *domain.Grid {
	lats := []float64{53, 52, 51}
	lons := []float64{8, 9, 10}
	tmp := []float64{
		280, 281, 282,
		283, 290.5, 285,
		286, math.NaN(), 288,
	}
	soil := make([]float64, 0, 2*9)
	for l := 0; l < 2; l++ {
		for i := 0; i < 9; i++ {
			soil = append(soil, float64(l)+float64(i)/16)
		}
	}
	return &domain.Grid{
		Lats:   lats,
		Lons:   lons,
		Levels: []float64{0, 0.1},
		Fields: map[string]*domain.Field{
			tmpCode:  {Code: tmpCode, Units: "K", LongName: "Temperature", Levels: 1, Values: tmp},
			soilCode: {Code: soilCode, Units: "Fraction", LongName: "Volumetric soil moisture content", Levels: 2, Values: soil},
		},
	}
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sof-d.20200317.t06z.0p125.basic.global.f003.nc")
	require.NoError(t, WriteGrid(path, fixtureGrid()))
	return path
}

func TestDecoder_Decode(t *testing.T) {
	path := writeFixture(t)

	grid, err := NewDecoder().Decode(path, []string{tmpCode, soilCode, "WTMP_P0_L1_GLL0"})
	require.NoError(t, err)

	assert.Equal(t, []float64{53, 52, 51}, grid.Lats)
	assert.Equal(t, []float64{8, 9, 10}, grid.Lons)
	assert.True(t, grid.Has(tmpCode))
	assert.True(t, grid.Has(soilCode))
	assert.False(t, grid.Has("WTMP_P0_L1_GLL0"), "fields absent from the file are skipped")

	tmp, err := grid.Field(tmpCode)
	require.NoError(t, err)
	assert.Equal(t, "K", tmp.Units)
	assert.Equal(t, "Temperature", tmp.LongName)
	assert.Equal(t, 1, tmp.Levels)
	assert.Equal(t, 290.5, tmp.Values[4])
	assert.True(t, math.IsNaN(tmp.Values[7]), "fill value decodes as NaN")

	soil, err := grid.Field(soilCode)
	require.NoError(t, err)
	assert.Equal(t, 2, soil.Levels)
	require.Len(t, grid.Levels, 2)
	assert.InDelta(t, 0.1, grid.Levels[1], 1e-6)
	assert.InDelta(t, 1+4.0/16, soil.Values[9+4], 1e-6)
}

func TestDecoder_SamplesAndInterpolate(t *testing.T) {
	grid, err := NewDecoder().Decode(writeFixture(t), []string{tmpCode})
	require.NoError(t, err)

	samples, err := grid.Samples(tmpCode)
	require.NoError(t, err)
	assert.Len(t, samples, 9)

	v, err := grid.Interpolate(tmpCode, 0, 52.5, 8.5)
	require.NoError(t, err)
	assert.InDelta(t, (280+281+283+290.5)/4, v, 1e-4)
}

func TestDecoder_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewDecoder().Decode(filepath.Join(t.TempDir(), "nope.nc"), []string{tmpCode})
		assert.ErrorIs(t, err, domain.ErrInputNotFound)
	})

	t.Run("not a netCDF file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.nc")
		require.NoError(t, os.WriteFile(path, []byte("GRIB not really"), 0o600))
		_, err := NewDecoder().Decode(path, []string{tmpCode})
		assert.ErrorIs(t, err, domain.ErrDecode)
	})
}

func TestFlatten(t *testing.T) {
	got, err := flatten([][]int16{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, got)

	got, err = flatten(float32(2.5))
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, got)

	_, err = flatten([]string{"a"})
	assert.Error(t, err)

	_, err = flatten(nil)
	assert.Error(t, err)
}
