package domain

import (
	"fmt"
	"strings"
	"time"
)

// reportTimeLayouts are the timestamp shapes seen in GPS report exports.
// Layouts without an offset are read as UTC.
var reportTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseReportTime parses a report timestamp in any of the supported layouts
// and returns it in UTC.
func ParseReportTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range reportTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q: %w", s, ErrSchemaMismatch)
}

// RoundedTimeLayout formats hour buckets in the hourly-position CSV.
const RoundedTimeLayout = "2006-01-02 15:04:05-07:00"

// RoundToHour rounds t to the nearest hour. Only the minute decides the
// direction: 10:29:59 rounds down, 10:30:00 rounds up.
func RoundToHour(t time.Time) time.Time {
	bucket := t.Truncate(time.Hour)
	if t.Minute() >= 30 {
		bucket = bucket.Add(time.Hour)
	}
	return bucket
}

// Bucketed pairs a record with the hour bucket it was assigned to.
type Bucketed[T any] struct {
	Record T
	Bucket time.Time
}

// DedupeHourly keeps one record per hour bucket: the one whose timestamp is
// closest to the bucket. A later record replaces the held one only when it is
// strictly closer, so ties keep the first seen. Buckets are returned in the
// order they were first seen.
func DedupeHourly[T any](records []T, at func(T) time.Time) []Bucketed[T] {
	index := make(map[int64]int)
	out := make([]Bucketed[T], 0)
	for _, rec := range records {
		ts := at(rec)
		bucket := RoundToHour(ts)
		i, ok := index[bucket.Unix()]
		if !ok {
			index[bucket.Unix()] = len(out)
			out = append(out, Bucketed[T]{Record: rec, Bucket: bucket})
			continue
		}
		if absDuration(ts.Sub(bucket)) < absDuration(at(out[i].Record).Sub(bucket)) {
			out[i].Record = rec
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Position is one GPS report row. Coordinates and the report date are kept as
// written so the hourly output reproduces them verbatim.
type Position struct {
	Latitude   string
	Longitude  string
	ReportDate string
	Reported   time.Time
}
