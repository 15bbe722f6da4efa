// Command hourlypos reduces GPS report CSVs to one position per hour, keeping
// the report closest to the top of each hour.
//
// Usage:
//
//	go run ./cmd/hourlypos -out positions reports/nienburg.csv reports/niteroi.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/forecast-geofilter/internal/app"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

func main() {
	out := flag.String("out", ".", "output directory")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	inputs := flag.Args()

	os.Exit(app.Main("hourlypos", func(ctx context.Context, env *app.Env) error {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", *out, err)
		}
		return env.Runner.Run(ctx, inputs, pipeline.NewHourlyPositions(*out, env.Runner, env.Logger))
	}))
}
