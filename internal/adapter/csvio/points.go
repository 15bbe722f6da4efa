package csvio

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// Point-forecast CSV columns.
const (
	ColIssuance  = "Forecast Issuance"
	ColValidTime = "Valid Time"
	ColLat       = "Latitude"
	ColLon       = "Longitude"
	ColVariable  = "Variable"
	ColName      = "Name"
	ColValue     = "Value"
	ColUnits     = "Units"
	ColBundle    = "Bundle"
)

// PointHeader is the point-forecast CSV header.
var PointHeader = []string{ColIssuance, ColValidTime, ColLat, ColLon, ColVariable, ColName, ColValue, ColUnits, ColBundle}

// ReadPointRows reads a point-forecast file. Any row that does not parse, or
// whose value is not finite, fails the whole file with domain.ErrSchemaMismatch.
// Name, Units and Bundle are optional.
func ReadPointRows(path string) ([]domain.PointRow, error) {
	t, err := readTable(path, ColIssuance, ColValidTime, ColLat, ColLon, ColVariable, ColValue)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PointRow, 0, len(t.rows))
	for i, row := range t.rows {
		r, err := parsePointRow(t, row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, RowError{Line: i + 2, Err: err})
		}
		out = append(out, r)
	}
	return out, nil
}

func parsePointRow(t *table, row []string) (domain.PointRow, error) {
	issuance, err := parseCSVTime(t.get(row, ColIssuance))
	if err != nil {
		return domain.PointRow{}, fmt.Errorf("%s: %w", ColIssuance, err)
	}
	valid, err := parseCSVTime(t.get(row, ColValidTime))
	if err != nil {
		return domain.PointRow{}, fmt.Errorf("%s: %w", ColValidTime, err)
	}
	lat, err := t.float(row, ColLat)
	if err != nil {
		return domain.PointRow{}, err
	}
	lon, err := t.float(row, ColLon)
	if err != nil {
		return domain.PointRow{}, err
	}
	value, err := t.float(row, ColValue)
	if err != nil {
		return domain.PointRow{}, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return domain.PointRow{}, fmt.Errorf("%s %v is not finite: %w", ColValue, value, domain.ErrSchemaMismatch)
	}
	return domain.PointRow{
		Issuance: issuance,
		Valid:    valid,
		Lat:      lat,
		Lon:      lon,
		Variable: t.get(row, ColVariable),
		Name:     t.get(row, ColName),
		Value:    value,
		Units:    t.get(row, ColUnits),
		Bundle:   t.get(row, ColBundle),
	}, nil
}

func parseCSVTime(s string) (time.Time, error) {
	v, err := time.Parse(domain.PointCSVTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not %s: %w", s, domain.PointCSVTimeLayout, domain.ErrSchemaMismatch)
	}
	return v, nil
}

// WritePointRows writes a point-forecast file.
func WritePointRows(path string, rows []domain.PointRow) error {
	return writeCSV(path, PointHeader, PointRecords(rows))
}

// PointRecords formats rows as CSV records without the header.
func PointRecords(rows []domain.PointRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Issuance.UTC().Format(domain.PointCSVTimeLayout),
			r.Valid.UTC().Format(domain.PointCSVTimeLayout),
			FormatFloat(r.Lat),
			FormatFloat(r.Lon),
			r.Variable,
			r.Name,
			FormatFloat(r.Value),
			r.Units,
			r.Bundle,
		})
	}
	return out
}
