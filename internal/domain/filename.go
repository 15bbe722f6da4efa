package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Token positions of the forecast filename grammar:
//
//	<product>.<YYYYMMDD>.t<HH>z.<resolution>.<bundle>.<domain>.f<LLL>.<ext>
const (
	tokProduct = iota
	tokDate
	tokCycle
	tokResolution
	tokBundle
	tokDomain
	tokLead
	tokExt
	tokCount
)

// ForecastFile holds the parameters encoded in a forecast filename.
type ForecastFile struct {
	Path       string
	Product    string
	Resolution string
	Bundle     string
	Domain     string
	Issuance   time.Time
	Lead       time.Duration
	Valid      time.Time
}

// LeadHours returns the lead time in whole hours.
func (f ForecastFile) LeadHours() int {
	return int(f.Lead / time.Hour)
}

// ParseForecastFilename parses the base name of path against the forecast
// filename grammar. Issuance is the date plus the cycle hour and Valid adds the
// lead time. Any deviation fails with ErrMalformedFilename.
func ParseForecastFilename(path string) (ForecastFile, error) {
	name := filepath.Base(path)
	tokens := strings.Split(name, ".")
	if len(tokens) != tokCount {
		return ForecastFile{}, malformed(name, "want %d dot-separated tokens, got %d", tokCount, len(tokens))
	}

	date, err := time.Parse("20060102", tokens[tokDate])
	if err != nil || len(tokens[tokDate]) != 8 {
		return ForecastFile{}, malformed(name, "date token %q is not YYYYMMDD", tokens[tokDate])
	}

	cycle := tokens[tokCycle]
	if len(cycle) != 4 || cycle[0] != 't' || cycle[3] != 'z' {
		return ForecastFile{}, malformed(name, "cycle token %q is not tHHz", cycle)
	}
	hour, err := strconv.Atoi(cycle[1:3])
	if err != nil || hour < 0 || hour > 23 {
		return ForecastFile{}, malformed(name, "cycle hour %q out of range", cycle[1:3])
	}

	lead := tokens[tokLead]
	if len(lead) < 2 || len(lead) > 5 || lead[0] != 'f' {
		return ForecastFile{}, malformed(name, "lead token %q is not fNNN", lead)
	}
	leadHours, err := strconv.Atoi(lead[1:])
	if err != nil || leadHours < 0 {
		return ForecastFile{}, malformed(name, "lead hours %q not a non-negative integer", lead[1:])
	}

	switch tokens[tokExt] {
	case "grib2", "nc":
	default:
		return ForecastFile{}, malformed(name, "extension %q is not grib2 or nc", tokens[tokExt])
	}

	for _, i := range []int{tokProduct, tokResolution, tokBundle, tokDomain} {
		if tokens[i] == "" {
			return ForecastFile{}, malformed(name, "empty token at position %d", i)
		}
	}

	issuance := date.Add(time.Duration(hour) * time.Hour)
	leadDur := time.Duration(leadHours) * time.Hour
	return ForecastFile{
		Path:       path,
		Product:    tokens[tokProduct],
		Resolution: tokens[tokResolution],
		Bundle:     tokens[tokBundle],
		Domain:     tokens[tokDomain],
		Issuance:   issuance,
		Lead:       leadDur,
		Valid:      issuance.Add(leadDur),
	}, nil
}

func malformed(name, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", name, fmt.Sprintf(format, args...), ErrMalformedFilename)
}

// ForecastKey identifies the file that covers a bundle at a valid time.
type ForecastKey struct {
	Bundle string
	Valid  time.Time
}

// Key returns the lookup key of the file.
func (f ForecastFile) Key() ForecastKey {
	return ForecastKey{Bundle: f.Bundle, Valid: f.Valid.UTC()}
}
