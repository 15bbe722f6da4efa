// Command validate checks that a point-forecast CSV and its JSON conversion
// carry the same data: every variable maps to a published name, the JSON
// matches the point API shape, and the (issuance, valid time, latitude,
// longitude, variable, value) tuples agree in both directions.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv points/nwp-hourly-positions-nienburg.csv \
//	  -json json/nwp-hourly-positions-nienburg.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// tuple is one value as both formats must carry it.
type tuple struct {
	issuance time.Time
	valid    time.Time
	lat      float64
	lon      float64
	variable string
	value    float64
}

func (t tuple) String() string {
	return fmt.Sprintf("%s %s (%g, %g) %s=%g",
		t.issuance.Format(time.RFC3339), t.valid.Format(time.RFC3339), t.lat, t.lon, t.variable, t.value)
}

func main() {
	csvPath := flag.String("csv", "", "point-forecast CSV")
	jsonPath := flag.String("json", "", "point-forecast JSON converted from -csv")
	flag.Parse()

	if *csvPath == "" || *jsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*csvPath, *jsonPath))
}

func run(csvPath, jsonPath string) int {
	fmt.Println("=== Point Forecast Integrity Validation ===")
	fmt.Println()

	rows, err := csvio.ReadPointRows(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}
	doc, err := pipeline.ReadPointDocument(jsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load JSON: %v\n", err)
		return 1
	}

	jsonTuples, schema := validateJSONSchema(doc)
	csvTuples := csvTuples(rows)

	phases := []*phase{
		validateCSVVariables(rows),
		schema,
		validateParity("CSV -> JSON tuple parity", csvTuples, jsonTuples),
		validateParity("JSON -> CSV tuple parity", jsonTuples, csvTuples),
		validateGrouping(rows, doc),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d CSV rows, %d JSON points, %d JSON values\n", len(rows), len(doc.Data), len(jsonTuples))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateCSVVariables(rows []domain.PointRow) *phase {
	p := &phase{name: "CSV variables mapped"}
	for i, r := range rows {
		line := i + 2
		v, err := domain.LookupCode(r.Variable)
		if err != nil {
			p.errorf("line %d: %v", line, err)
			continue
		}
		if r.Bundle != "" && r.Bundle != v.Bundle {
			p.errorf("line %d: %s bundle %q, table says %q", line, r.Variable, r.Bundle, v.Bundle)
		}
		if r.Units != "" && r.Units != v.Units {
			p.errorf("line %d: %s units %q, table says %q", line, r.Variable, r.Units, v.Units)
		}
	}
	return p
}

func validateJSONSchema(doc domain.PointDocument) (map[tuple]int, *phase) {
	p := &phase{name: "JSON schema"}
	tuples := make(map[tuple]int)
	for i, pt := range doc.Data {
		issuance, err := time.Parse(domain.PointJSONTimeLayout, pt.Times.IssuanceTime)
		if err != nil {
			p.errorf("data[%d]: issuance_time %q is not %s", i, pt.Times.IssuanceTime, domain.PointJSONTimeLayout)
			continue
		}
		valid, err := time.Parse(domain.PointJSONTimeLayout, pt.Times.ValidTime)
		if err != nil {
			p.errorf("data[%d]: valid_time %q is not %s", i, pt.Times.ValidTime, domain.PointJSONTimeLayout)
			continue
		}
		if valid.Before(issuance) {
			p.errorf("data[%d]: valid_time %s before issuance_time %s", i, pt.Times.ValidTime, pt.Times.IssuanceTime)
		}
		if len(pt.Values) == 0 {
			p.errorf("data[%d]: no values", i)
		}
		for name, value := range pt.Values {
			code, err := domain.CodeFor(name)
			if err != nil {
				p.errorf("data[%d]: %v", i, err)
				continue
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				p.errorf("data[%d]: %s is not finite", i, name)
			}
			tuples[tuple{
				issuance: issuance.UTC(),
				valid:    valid.UTC(),
				lat:      pt.Location.Coordinates.Lat,
				lon:      pt.Location.Coordinates.Lon,
				variable: code,
				value:    value,
			}]++
		}
	}
	return tuples, p
}

func csvTuples(rows []domain.PointRow) map[tuple]int {
	tuples := make(map[tuple]int, len(rows))
	for _, r := range rows {
		tuples[tuple{
			issuance: r.Issuance.UTC(),
			valid:    r.Valid.UTC(),
			lat:      r.Lat,
			lon:      r.Lon,
			variable: r.Variable,
			value:    r.Value,
		}]++
	}
	return tuples
}

// validateParity reports tuples of from that to lacks. Duplicate CSV rows
// collapse into one JSON value, so only presence is compared.
func validateParity(name string, from, to map[tuple]int) *phase {
	p := &phase{name: name}
	var missing []string
	for t := range from {
		if to[t] == 0 {
			missing = append(missing, t.String())
		}
	}
	sort.Strings(missing)
	for _, m := range missing {
		p.errorf("missing %s", m)
	}
	return p
}

func validateGrouping(rows []domain.PointRow, doc domain.PointDocument) *phase {
	p := &phase{name: "Point grouping"}
	keys := make(map[domain.PointKey]struct{}, len(rows))
	for _, r := range rows {
		keys[r.Key()] = struct{}{}
	}
	if len(keys) != len(doc.Data) {
		p.errorf("CSV has %d distinct (issuance, valid time, location) keys, JSON has %d points", len(keys), len(doc.Data))
	}
	return p
}
