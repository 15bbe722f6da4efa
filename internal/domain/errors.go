package domain

import "errors"

// Failure taxonomy. Every error surfaced by parsing, decoding or region
// selection wraps exactly one of these so callers can classify with errors.Is.
var (
	ErrInputNotFound     = errors.New("input not found")
	ErrDecode            = errors.New("decode error")
	ErrRegionNotFound    = errors.New("region not found")
	ErrAmbiguousRegion   = errors.New("ambiguous region")
	ErrVariableNotMapped = errors.New("variable not mapped")
	ErrMalformedFilename = errors.New("malformed filename")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrOutsideGrid       = errors.New("point outside grid")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInputNotFound, "input_not_found"},
	{ErrDecode, "decode"},
	{ErrRegionNotFound, "region_not_found"},
	{ErrAmbiguousRegion, "ambiguous_region"},
	{ErrVariableNotMapped, "variable_not_mapped"},
	{ErrMalformedFilename, "malformed_filename"},
	{ErrSchemaMismatch, "schema_mismatch"},
	{ErrOutsideGrid, "outside_grid"},
}

// ErrorKind returns a stable label for err suitable for logs and metric labels.
// Errors outside the taxonomy are reported as "other".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}
