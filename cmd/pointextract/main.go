// Command pointextract interpolates forecast variables at hourly positions.
// Each position is matched to the forecast file whose valid time equals its
// hour bucket, per bundle; the latest issuance wins when several match.
//
// Usage:
//
//	go run ./cmd/pointextract -data-dir forecast -bundles basic,maritime \
//	  -out points positions/hourly-positions-nienburg.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/netcdf"
	"github.com/couchcryptid/forecast-geofilter/internal/app"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

func main() {
	dataDir := flag.String("data-dir", "forecast", "directory of forecast files")
	pattern := flag.String("pattern", "*.nc", "forecast file glob within -data-dir")
	bundles := flag.String("bundles", strings.Join(domain.Bundles(), ","), "comma-separated bundles to extract")
	out := flag.String("out", ".", "output directory")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	inputs := flag.Args()

	os.Exit(app.Main("pointextract", func(ctx context.Context, env *app.Env) error {
		forecasts, err := app.Inputs(*dataDir, *pattern)
		if err != nil {
			return err
		}
		index, failures := pipeline.IndexForecasts(forecasts, env.Logger)
		for _, f := range failures {
			env.Logger.Warn("forecast file ignored", "file", f.Path, "kind", f.Kind, "error", f.Err)
		}
		if len(index) == 0 {
			return fmt.Errorf("no forecast files in %s: %w", *dataDir, domain.ErrInputNotFound)
		}
		env.Logger.Info("forecasts indexed", "files", len(index), "cache_size", env.Config.GridCacheSize)

		if err := os.MkdirAll(*out, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", *out, err)
		}
		decoder := netcdf.NewCachedDecoder(netcdf.NewDecoder(), env.Config.GridCacheSize)
		extractor := pipeline.NewPointExtractor(index, decoder, strings.Split(*bundles, ","), *out, env.Runner, env.Logger, env.Metrics)
		return env.Runner.Run(ctx, inputs, extractor)
	}))
}
