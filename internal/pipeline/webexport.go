package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// RegionLocator finds the regions containing a point, in load order.
type RegionLocator interface {
	Locate(lat, lon float64) []*domain.Region
}

// WebExport converts a region sample CSV into a `var DATA = ...;` script of
// GeoJSON point features for the map page.
type WebExport struct {
	valueColumn string
	out         string
	locator     RegionLocator
	skipper     RowSkipper
	logger      *slog.Logger
}

// NewWebExport creates the export of valueColumn into the script at out.
// When locator is non-nil every point is tagged with the region containing it.
func NewWebExport(valueColumn, out string, locator RegionLocator, skipper RowSkipper, logger *slog.Logger) *WebExport {
	return &WebExport{valueColumn: valueColumn, out: out, locator: locator, skipper: skipper, logger: logger}
}

// ProcessFile writes the script for one sample file.
func (w *WebExport) ProcessFile(_ context.Context, path string) error {
	points, skipped, err := csvio.ReadValuePoints(path, w.valueColumn)
	if err != nil {
		return err
	}
	w.skipper.SkipRows(path, skipped)

	fc, maxValue := PointCollection(w.valueColumn, points, w.locator)
	data, err := json.MarshalIndent(fc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := writeScript(w.out, "DATA", data); err != nil {
		return err
	}
	w.logger.Info("web data written", "file", w.out, "features", len(fc.Features), "max", maxValue)
	return nil
}

// PointCollection builds one Point feature per value and returns the largest
// value seen, floored at zero. Non-finite values are left out. With a locator,
// a point inside a region gets a "region" property naming the first region
// that contains it.
func PointCollection(valueColumn string, points []csvio.ValuePoint, locator RegionLocator) (domain.FeatureCollection, float64) {
	fc := domain.NewFeatureCollection()
	maxValue := 0.0
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		maxValue = max(maxValue, p.Value)
		props := map[string]any{valueColumn: p.Value}
		if locator != nil {
			if hits := locator.Locate(p.Lat, domain.NormalizeLongitude(p.Lon)); len(hits) > 0 {
				props[RegionProperty] = hits[0].Name()
			}
		}
		fc.Features = append(fc.Features, domain.PointFeature(p.Lat, p.Lon, props))
	}
	return fc, maxValue
}

// RegionProperty is the feature property naming a point's region.
const RegionProperty = "region"
