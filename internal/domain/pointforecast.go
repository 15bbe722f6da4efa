package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Time layouts of the point-forecast formats. Both carry UTC.
const (
	PointCSVTimeLayout  = "2006-01-02 15:04:05"
	PointJSONTimeLayout = "2006-01-02T15:04:05-07:00"
)

// UnitSystemSI is the only unit system the converter emits.
const UnitSystemSI = "si"

// PointRow is one variable value at one location and time.
type PointRow struct {
	Issuance time.Time
	Valid    time.Time
	Lat      float64
	Lon      float64
	Variable string
	Name     string
	Value    float64
	Units    string
	Bundle   string
}

// PointKey groups rows into one forecast point.
type PointKey struct {
	Issuance time.Time
	Valid    time.Time
	Lat      float64
	Lon      float64
}

// Key returns the grouping key of the row.
func (r PointRow) Key() PointKey {
	return PointKey{Issuance: r.Issuance.UTC(), Valid: r.Valid.UTC(), Lat: r.Lat, Lon: r.Lon}
}

// PointDocument is the JSON point-forecast document.
type PointDocument struct {
	Meta PointMeta       `json:"meta"`
	Data []PointForecast `json:"data"`
}

// PointMeta describes the document.
type PointMeta struct {
	UnitSystem string `json:"unit_system"`
}

// PointForecast holds every value forecast for one location and time.
type PointForecast struct {
	Location PointLocation      `json:"location"`
	Times    PointTimes         `json:"times"`
	Values   map[string]float64 `json:"values"`
}

// PointLocation wraps the coordinates of a point.
type PointLocation struct {
	Coordinates Coordinates `json:"coordinates"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PointTimes holds the issuance and valid times in PointJSONTimeLayout.
type PointTimes struct {
	IssuanceTime string `json:"issuance_time"`
	ValidTime    string `json:"valid_time"`
}

// MessageKey identifies the point for keyed publishing.
func (p PointForecast) MessageKey() string {
	return strconv.FormatFloat(p.Location.Coordinates.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Location.Coordinates.Lon, 'f', -1, 64) + "," +
		p.Times.ValidTime
}

// BuildPointDocument groups rows by issuance, valid time and location in
// first-seen order. A later row for the same variable overwrites the value.
func BuildPointDocument(rows []PointRow) (PointDocument, error) {
	doc := PointDocument{Meta: PointMeta{UnitSystem: UnitSystemSI}, Data: []PointForecast{}}
	index := make(map[PointKey]int)

	for i, r := range rows {
		name, err := SemanticName(r.Variable)
		if err != nil {
			return PointDocument{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return PointDocument{}, fmt.Errorf("row %d: %s value %v not representable: %w", i+1, r.Variable, r.Value, ErrSchemaMismatch)
		}

		k := r.Key()
		pos, ok := index[k]
		if !ok {
			pos = len(doc.Data)
			index[k] = pos
			doc.Data = append(doc.Data, PointForecast{
				Location: PointLocation{Coordinates: Coordinates{Lat: r.Lat, Lon: r.Lon}},
				Times: PointTimes{
					IssuanceTime: k.Issuance.Format(PointJSONTimeLayout),
					ValidTime:    k.Valid.Format(PointJSONTimeLayout),
				},
				Values: make(map[string]float64),
			})
		}
		doc.Data[pos].Values[name] = r.Value
	}
	return doc, nil
}

// DocumentRows flattens a document into one row per value. Values within a
// point are ordered by variable name; name, units and bundle come from the
// variable table.
func DocumentRows(doc PointDocument) ([]PointRow, error) {
	var rows []PointRow
	for i, p := range doc.Data {
		issuance, err := time.Parse(PointJSONTimeLayout, p.Times.IssuanceTime)
		if err != nil {
			return nil, fmt.Errorf("data[%d] issuance_time %q: %w", i, p.Times.IssuanceTime, ErrSchemaMismatch)
		}
		valid, err := time.Parse(PointJSONTimeLayout, p.Times.ValidTime)
		if err != nil {
			return nil, fmt.Errorf("data[%d] valid_time %q: %w", i, p.Times.ValidTime, ErrSchemaMismatch)
		}

		names := make([]string, 0, len(p.Values))
		for name := range p.Values {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			v, err := LookupSemantic(name)
			if err != nil {
				return nil, fmt.Errorf("data[%d]: %w", i, err)
			}
			rows = append(rows, PointRow{
				Issuance: issuance.UTC(),
				Valid:    valid.UTC(),
				Lat:      p.Location.Coordinates.Lat,
				Lon:      p.Location.Coordinates.Lon,
				Variable: v.Code,
				Name:     v.LongName,
				Value:    p.Values[name],
				Units:    v.Units,
				Bundle:   v.Bundle,
			})
		}
	}
	return rows, nil
}
