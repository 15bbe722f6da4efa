// Command webexport turns a region sample CSV into a `var DATA = ...;` script
// of GeoJSON points for the web map. With -shapefile each point is tagged with
// the feature that contains it.
//
// Usage:
//
//	go run ./cmd/webexport -column precip -out js/data.js precip_data/COMBINED.csv
//	go run ./cmd/webexport -shapefile data/mock/cities.shp -column precip precip_data/COMBINED.csv
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/shapefile"
	"github.com/couchcryptid/forecast-geofilter/internal/app"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

func main() {
	column := flag.String("column", "precip", "value column exported as the feature property")
	out := flag.String("out", "js/data.js", "output script path")
	shp := flag.String("shapefile", "", "optional region shapefile used to tag points with their region")
	fields := flag.String("fields", "NAME,ST", "shapefile attribute columns to load")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)

	os.Exit(app.Main("webexport", func(ctx context.Context, env *app.Env) error {
		var locator pipeline.RegionLocator
		if *shp != "" {
			loader, err := shapefile.Load(*shp, strings.Split(*fields, ",")...)
			if err != nil {
				return err
			}
			regions, err := loader.All()
			if err != nil {
				return err
			}
			index := shapefile.NewIndex(regions)
			env.Logger.Info("regions indexed", "shapefile", *shp, "regions", index.Len())
			locator = index
		}
		return env.Runner.Run(ctx, []string{input}, pipeline.NewWebExport(*column, *out, locator, env.Runner, env.Logger))
	}))
}
