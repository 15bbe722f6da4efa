package pipeline_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/observability"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

const (
	basicT06F003 = "sof-d.20200317.t06z.0p125.basic.global.f003.nc"
	basicT00F009 = "sof-d.20200317.t00z.0p125.basic.global.f009.nc"
)

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexForecasts(t *testing.T) {
	index, failures := pipeline.IndexForecasts([]string{
		filepath.Join("data", basicT00F009),
		filepath.Join("data", basicT06F003),
		filepath.Join("data", "README.txt"),
		filepath.Join("data", "sof-d.20200317.t06z.0p125.maritime.global.f003.nc"),
	}, discardLogger())

	require.Len(t, failures, 1)
	assert.Equal(t, "malformed_filename", failures[0].Kind)
	require.Len(t, index, 2)

	valid := time.Date(2020, 3, 17, 9, 0, 0, 0, time.UTC)
	basic := index[domain.ForecastKey{Bundle: domain.BundleBasic, Valid: valid}]
	assert.Equal(t, filepath.Join("data", basicT06F003), basic.Path, "latest issuance wins")

	_, ok := index[domain.ForecastKey{Bundle: domain.BundleMaritime, Valid: valid}]
	assert.True(t, ok)
}

func TestIndexForecasts_OrderIndependent(t *testing.T) {
	index, _ := pipeline.IndexForecasts([]string{basicT06F003, basicT00F009}, discardLogger())
	valid := time.Date(2020, 3, 17, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, basicT06F003, index[domain.ForecastKey{Bundle: domain.BundleBasic, Valid: valid}].Path)
}

func TestPointExtractor(t *testing.T) {
	dir := t.TempDir()
	nan := math.NaN()
	decoder := &fakeDecoder{grids: map[string]*domain.Grid{
		basicT06F003: {
			Lats: []float64{52, 53},
			Lons: []float64{9, 10},
			Fields: map[string]*domain.Field{
				"TMP_P0_L103_GLL0": {Code: "TMP_P0_L103_GLL0", Units: "K", LongName: "Temperature", Levels: 1, Values: []float64{280, 282, 284, 286}},
				"RH_P0_L103_GLL0":  {Code: "RH_P0_L103_GLL0", Levels: 1, Values: []float64{nan, nan, nan, nan}},
			},
		},
	}}
	index, _ := pipeline.IndexForecasts([]string{basicT00F009, basicT06F003}, discardLogger())

	input := writeText(t, dir, "hourly-positions-nienburg.csv", `latitude,longitude,report_date,rounded_time
52.5,9.5,2020-03-17 08:50:00,2020-03-17 09:00:00+00:00
oops,9.5,2020-03-17 09:50:00,2020-03-17 10:00:00+00:00
52.5,9.5,2020-03-17 10:55:00,2020-03-17 11:00:00+00:00
60,9.5,2020-03-17 09:05:00,2020-03-17 09:00:00+00:00
`)

	skipper := &recordingSkipper{}
	metrics := observability.NewMetricsForTesting()
	e := pipeline.NewPointExtractor(index, decoder, []string{domain.BundleBasic, domain.BundleMaritime}, dir, skipper, discardLogger(), metrics)

	require.NoError(t, e.ProcessFile(context.Background(), input))

	rows, err := csvio.ReadPointRows(filepath.Join(dir, "nwp-hourly-positions-nienburg.csv"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.PointRow{
		Issuance: time.Date(2020, 3, 17, 6, 0, 0, 0, time.UTC),
		Valid:    time.Date(2020, 3, 17, 9, 0, 0, 0, time.UTC),
		Lat:      52.5,
		Lon:      9.5,
		Variable: "TMP_P0_L103_GLL0",
		Name:     "Temperature",
		Value:    283,
		Units:    "K",
		Bundle:   domain.BundleBasic,
	}, rows[0])

	require.Len(t, skipper.rows, 2)
	assert.Equal(t, 3, skipper.rows[0].Line)
	assert.ErrorIs(t, skipper.rows[0].Err, domain.ErrSchemaMismatch)
	assert.Equal(t, 5, skipper.rows[1].Line)
	assert.ErrorIs(t, skipper.rows[1].Err, domain.ErrOutsideGrid)

	assert.Equal(t, 1.0, counterValue(t, metrics.PointsExtracted))
}

func TestPointExtractor_UndecodableForecastSkipsRow(t *testing.T) {
	dir := t.TempDir()
	index, _ := pipeline.IndexForecasts([]string{basicT06F003}, discardLogger())
	input := writeText(t, dir, "hourly.csv", `latitude,longitude,report_date,rounded_time
52.5,9.5,2020-03-17 08:50:00,2020-03-17 09:00:00+00:00
`)
	skipper := &recordingSkipper{}
	e := pipeline.NewPointExtractor(index, &fakeDecoder{}, []string{domain.BundleBasic}, dir, skipper, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, e.ProcessFile(context.Background(), input))
	require.Len(t, skipper.rows, 1)
	assert.ErrorIs(t, skipper.rows[0].Err, domain.ErrInputNotFound)

	rows, err := csvio.ReadPointRows(filepath.Join(dir, "nwp-hourly.csv"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPointExtractor_Errors(t *testing.T) {
	dir := t.TempDir()
	e := pipeline.NewPointExtractor(pipeline.ForecastIndex{}, &fakeDecoder{}, []string{"agri"}, dir, &recordingSkipper{}, discardLogger(), observability.NewMetricsForTesting())

	assert.ErrorIs(t, e.ProcessFile(context.Background(), filepath.Join(dir, "missing.csv")), domain.ErrInputNotFound)

	input := writeText(t, dir, "hourly.csv", "latitude,longitude,report_date,rounded_time\n")
	assert.ErrorIs(t, e.ProcessFile(context.Background(), input), domain.ErrVariableNotMapped)
}
