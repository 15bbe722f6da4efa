// Command wxconvert converts point-forecast CSV files to the JSON point API
// shape and JSON documents back to CSV. The direction follows each input's
// extension. With -publish, converted documents are also produced to Kafka
// (requires KAFKA_ENABLED=true).
//
// Usage:
//
//	go run ./cmd/wxconvert -out json points/nwp-hourly-positions-nienburg.csv
//	go run ./cmd/wxconvert -out csv json/nwp-hourly-positions-nienburg.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	kafkaadapter "github.com/couchcryptid/forecast-geofilter/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-geofilter/internal/app"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

func main() {
	out := flag.String("out", ".", "output directory")
	publish := flag.Bool("publish", false, "publish converted JSON points to Kafka")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	inputs := flag.Args()

	os.Exit(app.Main("wxconvert", func(ctx context.Context, env *app.Env) error {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", *out, err)
		}

		var publisher pipeline.PointPublisher
		if *publish {
			if !env.Config.KafkaEnabled {
				return errors.New("-publish needs KAFKA_ENABLED=true")
			}
			p := kafkaadapter.NewPublisher(env.Config, env.Logger)
			defer func() {
				if err := p.Close(); err != nil {
					env.Logger.Error("kafka publisher close error", "error", err)
				}
			}()
			publisher = p
			env.Logger.Info("kafka publishing enabled", "brokers", env.Config.KafkaBrokers, "topic", env.Config.KafkaTopic)
		}

		return env.Runner.Run(ctx, inputs, pipeline.NewConverter(*out, publisher, env.Logger, env.Metrics))
	}))
}
