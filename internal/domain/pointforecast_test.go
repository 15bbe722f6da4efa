package domain

import (
	"encoding/json"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testIssuance = time.Date(2020, 3, 17, 6, 0, 0, 0, time.UTC)
	testValid    = time.Date(2020, 3, 17, 9, 0, 0, 0, time.UTC)
)

func testRows() []PointRow {
	return []PointRow{
		{Issuance: testIssuance, Valid: testValid, Lat: 52.6, Lon: 9.2, Variable: "TMP_P0_L103_GLL0", Name: "Temperature", Value: 280.4, Units: "K", Bundle: BundleBasic},
		{Issuance: testIssuance, Valid: testValid, Lat: 52.6, Lon: 9.2, Variable: "RH_P0_L103_GLL0", Name: "Relative humidity", Value: 81, Units: "%", Bundle: BundleBasic},
		{Issuance: testIssuance, Valid: testValid.Add(time.Hour), Lat: 52.7, Lon: 9.1, Variable: "TMP_P0_L103_GLL0", Name: "Temperature", Value: 281, Units: "K", Bundle: BundleBasic},
		{Issuance: testIssuance, Valid: testValid, Lat: 52.6, Lon: 9.2, Variable: "WTMP_P0_L1_GLL0", Name: "Water temperature", Value: 279.9, Units: "K", Bundle: BundleMaritime},
	}
}

func TestBuildPointDocument(t *testing.T) {
	doc, err := BuildPointDocument(testRows())
	require.NoError(t, err)

	assert.Equal(t, UnitSystemSI, doc.Meta.UnitSystem)
	require.Len(t, doc.Data, 2)

	first := doc.Data[0]
	assert.Equal(t, Coordinates{Lat: 52.6, Lon: 9.2}, first.Location.Coordinates)
	assert.Equal(t, "2020-03-17T06:00:00+00:00", first.Times.IssuanceTime)
	assert.Equal(t, "2020-03-17T09:00:00+00:00", first.Times.ValidTime)
	assert.Equal(t, map[string]float64{
		"air_temperature":         280.4,
		"relative_humidity":       81,
		"sea_surface_temperature": 279.9,
	}, first.Values)
	assert.Equal(t, "52.6,9.2,2020-03-17T09:00:00+00:00", first.MessageKey())

	assert.Equal(t, "2020-03-17T10:00:00+00:00", doc.Data[1].Times.ValidTime)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"meta":{"unit_system":"si"}`)
	assert.Contains(t, string(raw), `"coordinates":{"lat":52.6,"lon":9.2}`)
}

func TestBuildPointDocumentEmpty(t *testing.T) {
	doc, err := BuildPointDocument(nil)
	require.NoError(t, err)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta":{"unit_system":"si"},"data":[]}`, string(raw))
}

func TestBuildPointDocumentUnmappedVariable(t *testing.T) {
	rows := testRows()
	rows[1].Variable = "FOO_P0_L1_GLL0"

	_, err := BuildPointDocument(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVariableNotMapped)
	assert.Contains(t, err.Error(), "FOO_P0_L1_GLL0")
}

func TestBuildPointDocumentNaN(t *testing.T) {
	rows := testRows()
	rows[0].Value = math.NaN()

	_, err := BuildPointDocument(rows)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

type pointTuple struct {
	Issuance, Valid time.Time
	Lat, Lon, Value float64
	Variable        string
}

func tuples(rows []PointRow) []pointTuple {
	out := make([]pointTuple, 0, len(rows))
	for _, r := range rows {
		out = append(out, pointTuple{r.Issuance, r.Valid, r.Lat, r.Lon, r.Value, r.Variable})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Valid.Equal(b.Valid) {
			return a.Valid.Before(b.Valid)
		}
		return a.Variable < b.Variable
	})
	return out
}

func TestPointDocumentRoundTrip(t *testing.T) {
	rows := testRows()
	doc, err := BuildPointDocument(rows)
	require.NoError(t, err)

	// Through the wire encoding, as the converter does.
	raw, err := json.MarshalIndent(doc, "", "    ")
	require.NoError(t, err)
	var decoded PointDocument
	require.NoError(t, json.Unmarshal(raw, &decoded))

	back, err := DocumentRows(decoded)
	require.NoError(t, err)

	if diff := cmp.Diff(tuples(rows), tuples(back)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	for _, r := range back {
		v, err := LookupCode(r.Variable)
		require.NoError(t, err)
		assert.Equal(t, v.LongName, r.Name)
		assert.Equal(t, v.Units, r.Units)
		assert.Equal(t, v.Bundle, r.Bundle)
	}
}

func TestDocumentRowsErrors(t *testing.T) {
	good := PointForecast{
		Times:  PointTimes{IssuanceTime: "2020-03-17T06:00:00+00:00", ValidTime: "2020-03-17T09:00:00+00:00"},
		Values: map[string]float64{"air_temperature": 280},
	}

	t.Run("unknown variable", func(t *testing.T) {
		p := good
		p.Values = map[string]float64{"wind_speed": 3}
		_, err := DocumentRows(PointDocument{Data: []PointForecast{p}})
		assert.ErrorIs(t, err, ErrVariableNotMapped)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		p := good
		p.Times.ValidTime = "2020-03-17 09:00:00"
		_, err := DocumentRows(PointDocument{Data: []PointForecast{p}})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("values ordered by name", func(t *testing.T) {
		p := good
		p.Values = map[string]float64{"relative_humidity": 80, "air_temperature": 280, "eastward_wind": 2}
		rows, err := DocumentRows(PointDocument{Data: []PointForecast{p}})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "TMP_P0_L103_GLL0", rows[0].Variable)
		assert.Equal(t, "UGRD_P0_L103_GLL0", rows[1].Variable)
		assert.Equal(t, "RH_P0_L103_GLL0", rows[2].Variable)
	})
}
