package csvio

import (
	"time"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// Region sample CSV columns besides the value column.
const (
	ColTime   = "time"
	ColRegion = "region"
)

// SampleTimeLayout formats the valid time of region sample rows.
const SampleTimeLayout = "2006-01-02 15:04:05"

// SampleRow is one retained grid cell in a region-filtered export.
type SampleRow struct {
	Lat    float64
	Lon    float64
	Value  float64
	Valid  time.Time
	Region string
}

// SampleWriter writes region-filtered samples under a named value column.
// The region column is written only when WithRegion is set.
type SampleWriter struct {
	ValueColumn string
	WithRegion  bool
}

func (w SampleWriter) header() []string {
	h := []string{ColLatitude, ColLongitude, w.ValueColumn, ColTime}
	if w.WithRegion {
		h = append(h, ColRegion)
	}
	return h
}

// Write writes rows to path.
func (w SampleWriter) Write(path string, rows []SampleRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{
			FormatFloat(r.Lat),
			FormatFloat(r.Lon),
			FormatFloat(r.Value),
			r.Valid.UTC().Format(SampleTimeLayout),
		}
		if w.WithRegion {
			rec = append(rec, r.Region)
		}
		records = append(records, rec)
	}
	return writeCSV(path, w.header(), records)
}

// ValuePoint is a located value read back from a region sample file.
type ValuePoint struct {
	Lat   float64
	Lon   float64
	Value float64
}

// ReadValuePoints reads latitude, longitude and the named value column. Rows
// that do not parse are returned as RowErrors.
func ReadValuePoints(path, valueColumn string) ([]ValuePoint, []RowError, error) {
	t, err := readTable(path, ColLatitude, ColLongitude, valueColumn)
	if err != nil {
		return nil, nil, err
	}

	var out []ValuePoint
	var skipped []RowError
	for i, row := range t.rows {
		var p ValuePoint
		var ferr error
		if p.Lat, ferr = t.float(row, ColLatitude); ferr == nil {
			if p.Lon, ferr = t.float(row, ColLongitude); ferr == nil {
				p.Value, ferr = t.float(row, valueColumn)
			}
		}
		if ferr != nil {
			skipped = append(skipped, RowError{Line: i + 2, Err: ferr})
			continue
		}
		out = append(out, p)
	}
	return out, skipped, nil
}

// Samples converts filtered grid samples into export rows.
func Samples(region string, valid time.Time, samples []domain.Sample) []SampleRow {
	out := make([]SampleRow, 0, len(samples))
	for _, s := range samples {
		out = append(out, SampleRow{Lat: s.Lat, Lon: s.Lon, Value: s.Value(), Valid: valid, Region: region})
	}
	return out
}
