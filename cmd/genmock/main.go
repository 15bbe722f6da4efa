// Command genmock writes a self-consistent set of synthetic inputs for local
// runs of the batch tools: forecast netCDF files named by the forecast
// filename grammar, a city shapefile, a country shapefile and a GPS report
// file.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
//
// The result feeds the other commands directly:
//
//	go run ./cmd/geofilter -mode cities -data-dir data/mock/forecast -shapefile data/mock/cities.shp
//	go run ./cmd/hourlypos -out data/mock/positions data/mock/reports/nienburg.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/netcdf"
	"github.com/couchcryptid/forecast-geofilter/internal/adapter/shapefile"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

type city struct {
	name, state string
	lat, lon    float64
}

// Portland appears twice so selectors need the state to disambiguate.
var cities = []city{
	{"New Orleans", "LA", 29.95, -90.07},
	{"Houston", "TX", 29.76, -95.37},
	{"Baltimore", "MD", 39.29, -76.61},
	{"Norfolk", "VA", 36.85, -76.29},
	{"Seattle", "WA", 47.61, -122.33},
	{"Portland", "OR", 45.52, -122.68},
	{"Portland", "ME", 43.66, -70.26},
}

// ukraine is a coarse outline, clockwise.
var ukraine = geom.Path{
	{X: 22.1, Y: 48.4},
	{X: 24.0, Y: 51.6},
	{X: 32.0, Y: 52.3},
	{X: 40.2, Y: 49.6},
	{X: 38.0, Y: 47.0},
	{X: 30.0, Y: 45.3},
	{X: 22.1, Y: 48.4},
}

var soilDepths = []float64{0, 0.1, 0.4, 1}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	date := flag.String("date", "20200317", "issuance date, YYYYMMDD")
	cycle := flag.Int("cycle", 6, "issuance hour")
	leads := flag.String("leads", "3,6,9,12", "comma-separated lead hours")
	flag.Parse()

	issuance, err := time.Parse("20060102", *date)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}
	if *cycle < 0 || *cycle > 23 {
		return fmt.Errorf("-cycle %d out of range", *cycle)
	}
	issuance = issuance.Add(time.Duration(*cycle) * time.Hour)

	forecastDir := filepath.Join(*out, "forecast")
	reportDir := filepath.Join(*out, "reports")
	for _, dir := range []string{forecastDir, reportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	for _, s := range strings.Split(*leads, ",") {
		lead, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || lead < 0 {
			return fmt.Errorf("lead %q is not a non-negative integer", s)
		}
		for _, bundle := range domain.Bundles() {
			name := forecastName(issuance, bundle, lead)
			if err := netcdf.WriteGrid(filepath.Join(forecastDir, name), mockGrid(bundle, lead)); err != nil {
				return err
			}
			log.Printf("wrote %s", name)
		}
	}

	places := make([]shapefile.PlaceRecord, 0, len(cities))
	for _, c := range cities {
		places = append(places, shapefile.PlaceRecord{Polygon: cityPolygon(c), Name: c.name, State: c.state})
	}
	if err := shapefile.WritePlaces(filepath.Join(*out, "cities.shp"), places); err != nil {
		return err
	}
	log.Printf("wrote cities.shp: %d places", len(places))

	country := []shapefile.PlaceRecord{{Polygon: geom.Polygon{ukraine}, Name: "Ukraine", State: "UA"}}
	if err := shapefile.WritePlaces(filepath.Join(*out, "ukraine.shp"), country); err != nil {
		return err
	}
	log.Printf("wrote ukraine.shp")

	reports := filepath.Join(reportDir, "nienburg.csv")
	if err := writeReports(reports, issuance); err != nil {
		return err
	}
	log.Printf("wrote %s", reports)
	return nil
}

func forecastName(issuance time.Time, bundle string, lead int) string {
	return fmt.Sprintf("sof-d.%s.t%02dz.1p00.%s.global.f%03d.nc",
		issuance.Format("20060102"), issuance.Hour(), bundle, lead)
}

// mockGrid builds a 1-degree grid over latitudes -60..70 with 0..359
// longitudes. Accumulated precipitation grows with the lead time.
func mockGrid(bundle string, lead int) *domain.Grid {
	g := &domain.Grid{Fields: map[string]*domain.Field{}}
	for lat := 70.0; lat >= -60; lat-- {
		g.Lats = append(g.Lats, lat)
	}
	for lon := 0.0; lon < 360; lon++ {
		g.Lons = append(g.Lons, lon)
	}

	surface := func(code string, f func(lat, lon float64) float64) {
		v, err := domain.LookupCode(code)
		if err != nil {
			panic(err)
		}
		values := make([]float64, 0, len(g.Lats)*len(g.Lons))
		for _, lat := range g.Lats {
			for _, lon := range g.Lons {
				values = append(values, f(lat, lon))
			}
		}
		g.Fields[code] = &domain.Field{Code: code, Units: v.Units, LongName: v.LongName, Levels: 1, Values: values}
	}
	wave := func(lat, lon float64) float64 {
		return math.Sin(lat*math.Pi/45) * math.Cos(lon*math.Pi/90)
	}

	switch bundle {
	case domain.BundleBasic:
		surface("TMP_P0_L103_GLL0", func(lat, lon float64) float64 { return 288 - 0.5*math.Abs(lat) + 3*wave(lat, lon) })
		surface("DPT_P0_L103_GLL0", func(lat, lon float64) float64 { return 283 - 0.5*math.Abs(lat) + 2*wave(lat, lon) })
		surface("RH_P0_L103_GLL0", func(lat, lon float64) float64 { return 70 + 20*wave(lat, lon) })
		surface("UGRD_P0_L103_GLL0", func(lat, lon float64) float64 { return 5 * wave(lat, lon) })
		surface("VGRD_P0_L103_GLL0", func(lat, lon float64) float64 { return 5 * wave(lon, lat) })
		surface("PRMSL_P0_L101_GLL0", func(lat, lon float64) float64 { return 101325 + 800*wave(lat, lon) })
		surface("APCP_P8_L1_GLL0_acc", func(lat, lon float64) float64 {
			return float64(lead) * math.Max(0, 0.4+0.6*wave(lat, lon))
		})
		g.Levels = soilDepths
		soil := make([]float64, 0, len(soilDepths)*len(g.Lats)*len(g.Lons))
		for l := range soilDepths {
			for _, lat := range g.Lats {
				for _, lon := range g.Lons {
					if int(lat+lon)%7 == 0 {
						soil = append(soil, 1)
						continue
					}
					soil = append(soil, 0.25+0.05*float64(l)+0.1*wave(lat, lon))
				}
			}
		}
		g.Fields["SOILW_P0_2L106_GLL0"] = &domain.Field{
			Code:     "SOILW_P0_2L106_GLL0",
			Units:    "Fraction",
			LongName: "Volumetric soil moisture content",
			Levels:   len(soilDepths),
			Values:   soil,
		}
	case domain.BundleMaritime:
		surface("WTMP_P0_L1_GLL0", func(lat, lon float64) float64 { return 290 - 0.3*math.Abs(lat) + wave(lat, lon) })
		surface("HTSGW_P0_L101_GLL0", func(lat, lon float64) float64 { return 1.5 + wave(lat, lon) })
		surface("MWSPER_P0_L101_GLL0", func(lat, lon float64) float64 { return 8 + 2*wave(lat, lon) })
	}
	return g
}

func cityPolygon(c city) geom.Polygon {
	const half = 0.15
	return geom.Polygon{geom.Path{
		{X: c.lon - half, Y: c.lat - half},
		{X: c.lon - half, Y: c.lat + half},
		{X: c.lon + half, Y: c.lat + half},
		{X: c.lon + half, Y: c.lat - half},
		{X: c.lon - half, Y: c.lat - half},
	}}
}

// writeReports writes a GPS track drifting north-east from Nienburg with a
// report every 20 minutes for six hours after issuance.
func writeReports(path string, issuance time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "latitude", "longitude", "report_date"}); err != nil {
		return err
	}
	for i := 0; i <= 18; i++ {
		at := issuance.Add(3*time.Hour + time.Duration(i)*20*time.Minute + time.Duration(i%3)*time.Minute)
		if err := w.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(52.64+0.01*float64(i), 'f', 4, 64),
			strconv.FormatFloat(9.21+0.02*float64(i), 'f', 4, 64),
			at.Format("2006-01-02 15:04:05"),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
