package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/observability"
)

// PointPrefix names the point-forecast file written for an hourly-position file.
const PointPrefix = "nwp-"

// ForecastIndex finds the forecast file covering a bundle at a valid time.
type ForecastIndex map[domain.ForecastKey]domain.ForecastFile

// IndexForecasts parses every path against the forecast filename grammar.
// When two files cover the same bundle and valid time, the later issuance
// wins. Names that do not parse are returned as failures and left out.
func IndexForecasts(paths []string, logger *slog.Logger) (ForecastIndex, []Failure) {
	index := make(ForecastIndex, len(paths))
	var failures []Failure
	for _, path := range paths {
		ff, err := domain.ParseForecastFilename(path)
		if err != nil {
			failures = append(failures, Failure{Path: path, Kind: domain.ErrorKind(err), Err: err})
			continue
		}
		key := ff.Key()
		if held, ok := index[key]; ok {
			if !ff.Issuance.After(held.Issuance) {
				logger.Debug("older forecast ignored", "file", path, "kept", held.Path)
				continue
			}
			logger.Debug("newer forecast replaces", "file", path, "replaced", held.Path)
		}
		index[key] = ff
	}
	return index, failures
}

// PointExtractor interpolates bundle variables at hourly positions.
type PointExtractor struct {
	index   ForecastIndex
	decoder domain.GridDecoder
	bundles []string
	outDir  string
	skipper RowSkipper
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPointExtractor creates the extraction pass. decoder is typically a cached
// decoder since consecutive positions often share a forecast file.
func NewPointExtractor(index ForecastIndex, decoder domain.GridDecoder, bundles []string, outDir string,
	skipper RowSkipper, logger *slog.Logger, metrics *observability.Metrics,
) *PointExtractor {
	return &PointExtractor{
		index:   index,
		decoder: decoder,
		bundles: bundles,
		outDir:  outDir,
		skipper: skipper,
		logger:  logger,
		metrics: metrics,
	}
}

// ProcessFile writes nwp-<name> for one hourly-position file. Positions with
// no forecast file are passed over; positions whose forecast file cannot be
// decoded or that fall outside the grid are skipped as rows.
func (e *PointExtractor) ProcessFile(ctx context.Context, path string) error {
	positions, skipped, err := csvio.ReadHourly(path)
	if err != nil {
		return err
	}

	var rows []domain.PointRow
	for _, bundle := range e.bundles {
		vars := domain.BundleVariables(bundle)
		if len(vars) == 0 {
			return fmt.Errorf("bundle %q has no variables: %w", bundle, domain.ErrVariableNotMapped)
		}
		codes := make([]string, len(vars))
		for i, v := range vars {
			codes[i] = v.Code
		}

		for _, pos := range positions {
			if err := ctx.Err(); err != nil {
				return err
			}
			ff, ok := e.index[domain.ForecastKey{Bundle: bundle, Valid: pos.Bucket.UTC()}]
			if !ok {
				e.logger.Debug("no forecast for position", "file", path, "line", pos.Line, "bundle", bundle, "valid", pos.Bucket)
				continue
			}
			grid, err := e.decoder.Decode(ff.Path, codes)
			if err != nil {
				skipped = append(skipped, csvio.RowError{Line: pos.Line, Err: err})
				continue
			}
			extracted, err := interpolate(grid, ff, vars, pos)
			if err != nil {
				skipped = append(skipped, csvio.RowError{Line: pos.Line, Err: err})
				continue
			}
			rows = append(rows, extracted...)
		}
	}
	e.skipper.SkipRows(path, skipped)

	out := filepath.Join(e.outDir, PointPrefix+filepath.Base(path))
	if err := csvio.WritePointRows(out, rows); err != nil {
		return err
	}
	e.metrics.PointsExtracted.Add(float64(len(rows)))
	e.logger.Info("point forecasts written", "file", out, "positions", len(positions), "rows", len(rows))
	return nil
}

// interpolate reads every variable the grid carries at the position. Missing
// variables and NaN values produce no row.
func interpolate(grid *domain.Grid, ff domain.ForecastFile, vars []domain.Variable, pos csvio.HourlyPosition) ([]domain.PointRow, error) {
	var rows []domain.PointRow
	for _, v := range vars {
		field, err := grid.Field(v.Code)
		if err != nil {
			continue
		}
		value, err := grid.Interpolate(v.Code, 0, pos.Lat, pos.Lon)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(ff.Path), err)
		}
		if math.IsNaN(value) {
			continue
		}
		rows = append(rows, domain.PointRow{
			Issuance: ff.Issuance,
			Valid:    ff.Valid,
			Lat:      pos.Lat,
			Lon:      pos.Lon,
			Variable: v.Code,
			Name:     firstNonEmpty(field.LongName, v.LongName),
			Value:    value,
			Units:    firstNonEmpty(field.Units, v.Units),
			Bundle:   ff.Bundle,
		})
	}
	return rows, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
