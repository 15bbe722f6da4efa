package csvio

import (
	"fmt"
	"time"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// Column names of the GPS report and hourly-position files.
const (
	ColLatitude    = "latitude"
	ColLongitude   = "longitude"
	ColReportDate  = "report_date"
	ColRoundedTime = "rounded_time"
)

// HourlyHeader is the hourly-position CSV header.
var HourlyHeader = []string{ColLatitude, ColLongitude, ColReportDate, ColRoundedTime}

// ReadPositions reads a GPS report file. Extra columns are ignored. Rows whose
// report_date does not parse are returned as RowErrors.
func ReadPositions(path string) ([]domain.Position, []RowError, error) {
	t, err := readTable(path, ColLatitude, ColLongitude, ColReportDate)
	if err != nil {
		return nil, nil, err
	}

	var out []domain.Position
	var skipped []RowError
	for i, row := range t.rows {
		reported, err := domain.ParseReportTime(t.get(row, ColReportDate))
		if err != nil {
			skipped = append(skipped, RowError{Line: i + 2, Err: err})
			continue
		}
		out = append(out, domain.Position{
			Latitude:   t.get(row, ColLatitude),
			Longitude:  t.get(row, ColLongitude),
			ReportDate: t.get(row, ColReportDate),
			Reported:   reported,
		})
	}
	return out, skipped, nil
}

// WriteHourly writes one row per hour bucket.
func WriteHourly(path string, positions []domain.Bucketed[domain.Position]) error {
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Record.Latitude,
			p.Record.Longitude,
			p.Record.ReportDate,
			p.Bucket.UTC().Format(domain.RoundedTimeLayout),
		})
	}
	return writeCSV(path, HourlyHeader, rows)
}

// HourlyPosition is a parsed hourly-position row.
type HourlyPosition struct {
	Line   int
	Lat    float64
	Lon    float64
	Bucket time.Time
}

// ReadHourly reads an hourly-position file. rounded_time may carry an offset
// or be a naive UTC timestamp. Rows with unparseable coordinates or times are
// returned as RowErrors.
func ReadHourly(path string) ([]HourlyPosition, []RowError, error) {
	t, err := readTable(path, HourlyHeader...)
	if err != nil {
		return nil, nil, err
	}

	var out []HourlyPosition
	var skipped []RowError
	for i, row := range t.rows {
		line := i + 2
		lat, err := t.float(row, ColLatitude)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}
		lon, err := t.float(row, ColLongitude)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}
		bucket, err := domain.ParseReportTime(t.get(row, ColRoundedTime))
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: fmt.Errorf("%s: %w", ColRoundedTime, err)})
			continue
		}
		out = append(out, HourlyPosition{Line: line, Lat: lat, Lon: lon, Bucket: bucket})
	}
	return out, skipped, nil
}
