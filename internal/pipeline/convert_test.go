package pipeline_test

import (
	"context"
	"errors"
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

type recordingPublisher struct {
	sources []string
	docs    []domain.PointDocument
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, source string, doc domain.PointDocument) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.sources = append(p.sources, source)
	p.docs = append(p.docs, doc)
	return len(doc.Data), nil
}

func pointRows() []domain.PointRow {
	issuance := time.Date(2020, 3, 17, 6, 0, 0, 0, time.UTC)
	valid := issuance.Add(3 * time.Hour)
	return []domain.PointRow{
		{Issuance: issuance, Valid: valid, Lat: 52.5, Lon: 9.5, Variable: "TMP_P0_L103_GLL0", Value: 283},
		{Issuance: issuance, Valid: valid, Lat: 52.5, Lon: 9.5, Variable: "RH_P0_L103_GLL0", Value: 81.5},
		{Issuance: issuance, Valid: valid.Add(time.Hour), Lat: 52.6, Lon: 9.6, Variable: "TMP_P0_L103_GLL0", Value: 282.25},
	}
}

func TestConverter_RoundTrip(t *testing.T) {
	in := t.TempDir()
	jsonDir := t.TempDir()
	csvDir := t.TempDir()
	source := filepath.Join(in, "nwp-hourly-positions-nienburg.csv")
	require.NoError(t, csvio.WritePointRows(source, pointRows()))

	pub := &recordingPublisher{}
	metrics := observability.NewMetricsForTesting()
	toJSON := pipeline.NewConverter(jsonDir, pub, discardLogger(), metrics)
	require.NoError(t, toJSON.ProcessFile(context.Background(), source))

	doc, err := pipeline.ReadPointDocument(filepath.Join(jsonDir, "nwp-hourly-positions-nienburg.json"))
	require.NoError(t, err)
	require.Len(t, doc.Data, 2)
	assert.Equal(t, "2020-03-17T09:00:00+00:00", doc.Data[0].Times.ValidTime)
	assert.Equal(t, map[string]float64{"air_temperature": 283, "relative_humidity": 81.5}, doc.Data[0].Values)

	require.Len(t, pub.docs, 1)
	assert.Equal(t, []string{"nwp-hourly-positions-nienburg.json"}, pub.sources)
	assert.Equal(t, 2.0, counterValue(t, metrics.RecordsPublished))

	toCSV := pipeline.NewConverter(csvDir, nil, discardLogger(), metrics)
	require.NoError(t, toCSV.ProcessFile(context.Background(), filepath.Join(jsonDir, "nwp-hourly-positions-nienburg.json")))

	back, err := csvio.ReadPointRows(filepath.Join(csvDir, "nwp-hourly-positions-nienburg.csv"))
	require.NoError(t, err)
	require.Len(t, back, 3)

	type tuple struct {
		issuance, valid time.Time
		lat, lon, value float64
		variable        string
	}
	toTuples := func(rows []domain.PointRow) map[tuple]bool {
		out := make(map[tuple]bool, len(rows))
		for _, r := range rows {
			out[tuple{r.Issuance, r.Valid, r.Lat, r.Lon, r.Value, r.Variable}] = true
		}
		return out
	}
	assert.Equal(t, toTuples(pointRows()), toTuples(back))
	assert.Equal(t, "Temperature", back[0].Name, "values are written in variable name order")
	assert.Equal(t, "Relative humidity", back[1].Name)
	assert.Equal(t, domain.BundleBasic, back[1].Bundle)
}

func TestConverter_Errors(t *testing.T) {
	dir := t.TempDir()
	c := pipeline.NewConverter(dir, nil, discardLogger(), observability.NewMetricsForTesting())

	unmapped := filepath.Join(dir, "unmapped.csv")
	rows := pointRows()
	rows[1].Variable = "XYZ_P0_L1_GLL0"
	require.NoError(t, csvio.WritePointRows(unmapped, rows))

	badJSON := writeText(t, dir, "bad.json", `{"meta": {"unit_system": "si"}, "data": [{"times": "noon"}]}`)
	imperial := writeText(t, dir, "imperial.json", `{"meta": {"unit_system": "us"}, "data": []}`)
	unknown := writeText(t, dir, "unknown.json", `{"meta": {"unit_system": "si"}, "data": [
		{"location": {"coordinates": {"lat": 1, "lon": 2}},
		 "times": {"issuance_time": "2020-03-17T06:00:00+00:00", "valid_time": "2020-03-17T09:00:00+00:00"},
		 "values": {"snow_depth": 0.1}}]}`)

	tests := []struct {
		name string
		path string
		want error
	}{
		{"unmapped code", unmapped, domain.ErrVariableNotMapped},
		{"unknown semantic name", unknown, domain.ErrVariableNotMapped},
		{"malformed json", badJSON, domain.ErrSchemaMismatch},
		{"unit system", imperial, domain.ErrSchemaMismatch},
		{"extension", filepath.Join(dir, "points.txt"), domain.ErrSchemaMismatch},
		{"missing csv", filepath.Join(dir, "missing.csv"), domain.ErrInputNotFound},
		{"missing json", filepath.Join(dir, "missing.json"), domain.ErrInputNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.ProcessFile(context.Background(), tt.path), tt.want)
		})
	}
}

func TestConverter_PublishError(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "points.csv")
	require.NoError(t, csvio.WritePointRows(source, pointRows()))

	c := pipeline.NewConverter(t.TempDir(), &recordingPublisher{err: errors.New("broker down")}, discardLogger(), observability.NewMetricsForTesting())
	err := c.ProcessFile(context.Background(), source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
