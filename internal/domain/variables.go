package domain

import (
	"fmt"
	"sort"
)

// Forecast bundles.
const (
	BundleBasic    = "basic"
	BundleMaritime = "maritime"
)

// Variable maps a decoder field code to its published name.
type Variable struct {
	Code     string
	Semantic string
	Bundle   string
	Units    string
	LongName string
}

// Variables is the field table for the point-forecast bundles, in extraction order.
var Variables = []Variable{
	{"TMP_P0_L103_GLL0", "air_temperature", BundleBasic, "K", "Temperature"},
	{"DPT_P0_L103_GLL0", "dew_point_temperature", BundleBasic, "K", "Dew point temperature"},
	{"RH_P0_L103_GLL0", "relative_humidity", BundleBasic, "%", "Relative humidity"},
	{"UGRD_P0_L103_GLL0", "eastward_wind", BundleBasic, "m s-1", "U-component of wind"},
	{"VGRD_P0_L103_GLL0", "northward_wind", BundleBasic, "m s-1", "V-component of wind"},
	{"GUST_P0_L1_GLL0", "wind_gust", BundleBasic, "m s-1", "Wind speed (gust)"},
	{"PRMSL_P0_L101_GLL0", "air_pressure_at_sea_level", BundleBasic, "Pa", "Pressure reduced to MSL"},
	{"TCDC_P0_L200_GLL0", "total_cloud_cover", BundleBasic, "%", "Total cloud cover"},
	{"APCP_P8_L1_GLL0_acc", "precipitation_amount", BundleBasic, "kg m-2", "Total precipitation"},

	{"HTSGW_P0_L101_GLL0", "sea_surface_wave_significant_height", BundleMaritime, "m", "Significant height of combined wind waves and swell"},
	{"WWSDIR_P0_L101_GLL0", "sea_surface_wave_mean_direction", BundleMaritime, "degree true", "Direction of combined wind waves and swell"},
	{"MWSPER_P0_L101_GLL0", "sea_surface_wave_mean_period", BundleMaritime, "s", "Mean period of combined wind waves and swell"},
	{"UOGRD_P0_L1_GLL0", "eastward_sea_water_velocity", BundleMaritime, "m s-1", "U-component of current"},
	{"VOGRD_P0_L1_GLL0", "northward_sea_water_velocity", BundleMaritime, "m s-1", "V-component of current"},
	{"WTMP_P0_L1_GLL0", "sea_surface_temperature", BundleMaritime, "K", "Water temperature"},
}

var (
	byCode     = make(map[string]Variable, len(Variables))
	bySemantic = make(map[string]Variable, len(Variables))
)

func init() {
	for _, v := range Variables {
		byCode[v.Code] = v
		bySemantic[v.Semantic] = v
	}
}

// LookupCode returns the table entry for a field code.
func LookupCode(code string) (Variable, error) {
	v, ok := byCode[code]
	if !ok {
		return Variable{}, fmt.Errorf("field code %q: %w", code, ErrVariableNotMapped)
	}
	return v, nil
}

// LookupSemantic returns the table entry for a published variable name.
func LookupSemantic(name string) (Variable, error) {
	v, ok := bySemantic[name]
	if !ok {
		return Variable{}, fmt.Errorf("variable %q: %w", name, ErrVariableNotMapped)
	}
	return v, nil
}

// SemanticName maps a field code to its published name.
func SemanticName(code string) (string, error) {
	v, err := LookupCode(code)
	return v.Semantic, err
}

// CodeFor maps a published name back to its field code.
func CodeFor(semantic string) (string, error) {
	v, err := LookupSemantic(semantic)
	return v.Code, err
}

// BundleVariables returns the table entries of a bundle in extraction order.
func BundleVariables(bundle string) []Variable {
	var out []Variable
	for _, v := range Variables {
		if v.Bundle == bundle {
			out = append(out, v)
		}
	}
	return out
}

// Bundles returns the known bundle names, sorted.
func Bundles() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range Variables {
		if !seen[v.Bundle] {
			seen[v.Bundle] = true
			out = append(out, v.Bundle)
		}
	}
	sort.Strings(out)
	return out
}
