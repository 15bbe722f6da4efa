// Command geofilter filters gridded forecast files to geographic regions and
// writes the retained samples as CSV.
//
// Two modes are supported. country keeps one layered field (soil moisture by
// default) inside a shapefile layer or a fixed box:
//
//	go run ./cmd/geofilter -mode country \
//	  -data-dir agricast -shapefile ukraine/ukraine.shp -out ukraine_data
//
// cities keeps accumulated precipitation within a buffer around each city's
// centroid, de-accumulates it between files, and writes per-city means and
// area GeoJSON for the web map:
//
//	go run ./cmd/geofilter -mode cities \
//	  -data-dir forecast -shapefile 500cities/cities.shp \
//	  -place "Houston|TX" -place "Seattle|WA" -out precip_data
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/netcdf"
	"github.com/couchcryptid/forecast-geofilter/internal/adapter/shapefile"
	"github.com/couchcryptid/forecast-geofilter/internal/app"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

var defaultPlaces = []string{
	"New Orleans|LA",
	"Houston|TX",
	"Baltimore|MD",
	"Norfolk|VA",
	"Seattle|WA",
	"Portland|OR",
}

type options struct {
	mode      string
	dataDir   string
	pattern   string
	shapefile string
	fields    string
	regionID  string
	bbox      string
	places    app.StringList
	field     string
	column    string
	level     int
	below     float64
	buffer    float64
	bin       float64
	out       string
	means     string
	areas     string
}

func main() {
	var o options
	flag.StringVar(&o.mode, "mode", "cities", "filter mode: country or cities")
	flag.StringVar(&o.dataDir, "data-dir", "forecast", "directory of forecast files")
	flag.StringVar(&o.pattern, "pattern", "*.basic.*.nc", "forecast file glob within -data-dir")
	flag.StringVar(&o.shapefile, "shapefile", "", "region shapefile")
	flag.StringVar(&o.fields, "fields", "NAME,ST", "shapefile attribute columns; -place values match them in order")
	flag.StringVar(&o.regionID, "region-id", "", "country mode: name of the merged layer region (default: shapefile name)")
	flag.StringVar(&o.bbox, "bbox", "", "country mode: minlon,maxlon,minlat,maxlat box used instead of a shapefile")
	flag.Var(&o.places, "place", "region selector such as \"Houston|TX\" (repeatable)")
	flag.StringVar(&o.field, "field", "", "grid field code (mode default when empty)")
	flag.StringVar(&o.column, "column", "", "value column name (mode default when empty)")
	flag.IntVar(&o.level, "level", 0, "country mode: level index to keep, -1 keeps all")
	flag.Float64Var(&o.below, "below", 1, "country mode: keep values strictly below this")
	flag.Float64Var(&o.buffer, "buffer", 1, "cities mode: buffer radius in degrees around the centroid")
	flag.Float64Var(&o.bin, "bin", 0, "cities mode: bin step in degrees for duplicate cells, 0 keeps exact coordinates")
	flag.StringVar(&o.out, "out", "", "output directory (mode default when empty)")
	flag.StringVar(&o.means, "means", "means/means.js", "cities mode: means script path, empty to skip")
	flag.StringVar(&o.areas, "areas", "areas_geojson", "cities mode: area GeoJSON directory, empty to skip")
	flag.Parse()

	os.Exit(app.Main("geofilter", func(ctx context.Context, env *app.Env) error {
		return run(ctx, env, o)
	}))
}

func run(ctx context.Context, env *app.Env, o options) error {
	opts, targets, err := configure(o)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", opts.OutDir, err)
	}

	paths, err := app.Inputs(o.dataDir, o.pattern)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files match %s in %s: %w", o.pattern, o.dataDir, domain.ErrInputNotFound)
	}
	env.Logger.Info("region filter configured",
		"mode", o.mode,
		"field", opts.Field,
		"regions", len(targets),
		"files", len(paths),
		"out", opts.OutDir,
	)

	f := pipeline.NewRegionFilter(opts, netcdf.NewDecoder(), targets, env.Logger, env.Metrics)
	runErr := env.Runner.Run(ctx, paths, f)
	if ctx.Err() != nil {
		return runErr
	}
	if err := f.Finish(); err != nil {
		return err
	}
	return runErr
}

func configure(o options) (pipeline.RegionFilterOptions, []pipeline.Target, error) {
	switch o.mode {
	case "country":
		opts := pipeline.RegionFilterOptions{
			Field:       orDefault(o.field, "SOILW_P0_2L106_GLL0"),
			ValueColumn: orDefault(o.column, "soil_moisture"),
			Level:       o.level,
			Below:       o.below,
			OutDir:      orDefault(o.out, "country_data"),
		}
		targets, err := countryTargets(o)
		return opts, targets, err
	case "cities":
		opts := pipeline.RegionFilterOptions{
			Field:        orDefault(o.field, "APCP_P8_L1_GLL0_acc"),
			ValueColumn:  orDefault(o.column, "precip"),
			Level:        -1,
			Below:        math.Inf(1),
			DropNaN:      true,
			Dedupe:       true,
			BinStep:      o.bin,
			Deaccumulate: true,
			OutDir:       orDefault(o.out, "precip_data"),
			WithRegion:   true,
			MeansPath:    o.means,
			AreasDir:     o.areas,
		}
		targets, err := cityTargets(o)
		return opts, targets, err
	default:
		return pipeline.RegionFilterOptions{}, nil, fmt.Errorf("unknown mode %q: want country or cities", o.mode)
	}
}

func countryTargets(o options) ([]pipeline.Target, error) {
	if o.bbox != "" {
		box, err := domain.ParseBoundingBox(o.bbox)
		if err != nil {
			return nil, err
		}
		r, err := domain.BoxRegion(orDefault(o.regionID, "bbox"), box)
		if err != nil {
			return nil, err
		}
		return []pipeline.Target{{Name: r.ID, Filter: r, Area: r}}, nil
	}
	if o.shapefile == "" {
		return nil, fmt.Errorf("country mode needs -shapefile or -bbox")
	}

	loader, err := shapefile.Load(o.shapefile, splitFields(o.fields)...)
	if err != nil {
		return nil, err
	}
	if len(o.places) == 0 {
		id := orDefault(o.regionID, strings.TrimSuffix(filepath.Base(o.shapefile), ".shp"))
		r, err := loader.Merged(id)
		if err != nil {
			return nil, err
		}
		return []pipeline.Target{{Name: id, Filter: r, Area: r}}, nil
	}

	var targets []pipeline.Target
	for _, place := range o.places {
		r, err := selectPlace(loader, place, o.fields)
		if err != nil {
			return nil, err
		}
		targets = append(targets, pipeline.Target{Name: r.Name(), Filter: r, Area: r})
	}
	return targets, nil
}

func cityTargets(o options) ([]pipeline.Target, error) {
	if o.shapefile == "" {
		return nil, fmt.Errorf("cities mode needs -shapefile")
	}
	loader, err := shapefile.Load(o.shapefile, splitFields(o.fields)...)
	if err != nil {
		return nil, err
	}

	places := []string(o.places)
	if len(places) == 0 {
		places = defaultPlaces
	}
	targets := make([]pipeline.Target, 0, len(places))
	for _, place := range places {
		area, err := selectPlace(loader, place, o.fields)
		if err != nil {
			return nil, err
		}
		buffered, err := area.Buffer(o.buffer, 64)
		if err != nil {
			return nil, err
		}
		targets = append(targets, pipeline.Target{Name: area.Name(), Filter: buffered, Area: area})
	}
	return targets, nil
}

func selectPlace(loader *shapefile.Loader, place, fields string) (*domain.Region, error) {
	sel, err := domain.ParseSelector(place, splitFields(fields)...)
	if err != nil {
		return nil, err
	}
	return loader.Select(sel)
}

func splitFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
