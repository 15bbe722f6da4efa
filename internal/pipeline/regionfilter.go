package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/observability"
)

// CombinedFile is the name of the all-times export written by Finish.
const CombinedFile = "COMBINED.csv"

// Target is one region of a filter run. Samples are tested against Filter;
// Area is the geometry exported to GeoJSON, which differs from Filter when
// Filter is a buffer around the area's centroid.
type Target struct {
	Name   string
	Filter *domain.Region
	Area   *domain.Region
}

// RegionFilterOptions selects what the filter keeps and writes.
type RegionFilterOptions struct {
	Field       string
	ValueColumn string

	// Level keeps one level of layered fields; negative keeps all.
	Level int
	// Below drops samples whose value is not strictly below it. +Inf keeps all.
	Below        float64
	DropNaN      bool
	Dedupe       bool
	BinStep      float64
	Deaccumulate bool

	OutDir     string
	WithRegion bool
	MeansPath  string
	AreasDir   string
}

// RegionFilter decodes forecast files and writes the samples that fall in
// each target region. One RegionFilter serves one run: accumulations carry
// from file to file, so files must be fed in valid-time order.
type RegionFilter struct {
	opts    RegionFilterOptions
	decoder domain.GridDecoder
	targets []Target
	logger  *slog.Logger
	metrics *observability.Metrics

	previous map[string]domain.Accumulations
	combined []csvio.SampleRow
	means    map[string]map[string]*float64
}

// NewRegionFilter creates a RegionFilter over the given targets.
func NewRegionFilter(opts RegionFilterOptions, decoder domain.GridDecoder, targets []Target, logger *slog.Logger, metrics *observability.Metrics) *RegionFilter {
	for _, t := range targets {
		if t.Filter.CrossesAntimeridian() {
			logger.Info("region box wraps the antimeridian", "region", t.Name, "box", t.Filter.BoundingBox().String())
		}
	}
	return &RegionFilter{
		opts:     opts,
		decoder:  decoder,
		targets:  targets,
		logger:   logger,
		metrics:  metrics,
		previous: make(map[string]domain.Accumulations),
		means:    make(map[string]map[string]*float64),
	}
}

func (f *RegionFilter) writer() csvio.SampleWriter {
	return csvio.SampleWriter{ValueColumn: f.opts.ValueColumn, WithRegion: f.opts.WithRegion}
}

// ProcessFile filters one forecast file and writes <valid time>.csv.
func (f *RegionFilter) ProcessFile(_ context.Context, path string) error {
	ff, err := domain.ParseForecastFilename(path)
	if err != nil {
		return err
	}
	grid, err := f.decoder.Decode(path, []string{f.opts.Field})
	if err != nil {
		return err
	}
	samples, err := grid.Samples(f.opts.Field)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if f.opts.Level >= 0 {
		samples = domain.FilterLevel(samples, f.opts.Level)
	}

	stamp := ff.Valid.UTC().Format(csvio.SampleTimeLayout)
	var rows []csvio.SampleRow
	means := make(map[string]*float64, len(f.targets))
	next := make(map[string]domain.Accumulations, len(f.targets))

	for _, t := range f.targets {
		res := domain.FilterRegion(t.Filter, samples)
		f.metrics.FilterSamples.WithLabelValues("input").Add(float64(res.Input))
		f.metrics.FilterSamples.WithLabelValues("coarse").Add(float64(res.Coarse))
		f.metrics.FilterSamples.WithLabelValues("precise").Add(float64(res.Retained))

		kept := f.refine(res.Samples)
		if f.opts.Deaccumulate {
			kept, next[t.Name] = domain.Deaccumulate(kept, f.previous[t.Name])
		}

		sum := domain.Summarize(kept)
		if sum.Count > 0 {
			f.logger.Debug("region filtered",
				"file", filepath.Base(path),
				"region", t.Name,
				"coarse", res.Coarse,
				"retained", len(kept),
				"min", sum.Min,
				"max", sum.Max,
				"mean", sum.Mean,
				"stdev", sum.StdDev,
			)
		} else {
			f.logger.Warn("region has no samples", "file", filepath.Base(path), "region", t.Name, "coarse", res.Coarse)
		}
		means[t.Name] = finite(sum.Mean)
		rows = append(rows, csvio.Samples(t.Name, ff.Valid, kept)...)
	}

	if err := f.writer().Write(filepath.Join(f.opts.OutDir, stamp+".csv"), rows); err != nil {
		return err
	}
	for name, acc := range next {
		f.previous[name] = acc
	}
	f.combined = append(f.combined, rows...)
	f.means[stamp] = means
	return nil
}

// refine applies the value filters that follow region membership.
func (f *RegionFilter) refine(samples []domain.Sample) []domain.Sample {
	if !math.IsInf(f.opts.Below, 1) {
		samples = domain.FilterBelow(samples, f.opts.Below)
	}
	if f.opts.Dedupe {
		samples = domain.DedupeCells(samples, f.opts.BinStep)
	}
	if f.opts.DropNaN {
		samples = domain.DropNaN(samples)
	}
	return samples
}

// Finish writes the combined export and, when configured, the means script
// and one GeoJSON file per area.
func (f *RegionFilter) Finish() error {
	if err := f.writer().Write(filepath.Join(f.opts.OutDir, CombinedFile), f.combined); err != nil {
		return err
	}
	if f.opts.MeansPath != "" {
		if err := f.writeMeans(); err != nil {
			return err
		}
	}
	if f.opts.AreasDir != "" {
		if err := f.writeAreas(); err != nil {
			return err
		}
	}
	f.logger.Info("region export written", "rows", len(f.combined), "times", len(f.means))
	return nil
}

func (f *RegionFilter) writeMeans() error {
	data, err := json.MarshalIndent(f.means, "", "    ")
	if err != nil {
		return fmt.Errorf("encode means: %w", err)
	}
	return writeScript(f.opts.MeansPath, "AVERAGES", data)
}

func (f *RegionFilter) writeAreas() error {
	if err := os.MkdirAll(f.opts.AreasDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", f.opts.AreasDir, err)
	}
	for _, t := range f.targets {
		data, err := json.Marshal(domain.RegionFeature(t.Area))
		if err != nil {
			return fmt.Errorf("encode area %s: %w", t.Name, err)
		}
		path := filepath.Join(f.opts.AreasDir, AreaFileName(t.Name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// AreaFileName is the GeoJSON file name of a region: spaces become underscores.
func AreaFileName(name string) string {
	return strings.ReplaceAll(name, " ", "_") + ".geojson"
}

// writeScript writes `var <name> = <data>;` for direct inclusion in a web page.
func writeScript(path, name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	out := make([]byte, 0, len(data)+len(name)+8)
	out = append(out, "var "+name+" = "...)
	out = append(out, data...)
	out = append(out, ';')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// finite returns nil for values JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
