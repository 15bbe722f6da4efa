package domain

import "math"

// Sample is one decoded grid cell: its coordinates, the level index of layered
// fields, and one value per requested field.
type Sample struct {
	Lat    float64
	Lon    float64
	Level  int
	Values []float64
}

// Value returns the first field value, the common single-field case.
func (s Sample) Value() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[0]
}

// FilterResult is the outcome of filtering samples against one region.
type FilterResult struct {
	Region   *Region
	Samples  []Sample
	Input    int
	Coarse   int
	Retained int
}

// CoarseFilter keeps samples inside the inclusive bounding box. Longitudes must
// already be normalized. Input order is preserved.
func CoarseFilter(box BoundingBox, samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if box.Contains(s.Lat, s.Lon) {
			out = append(out, s)
		}
	}
	return out
}

// PreciseFilter keeps samples whose point lies inside or on the boundary of
// the region's geometry. This is the authoritative membership test.
func PreciseFilter(region *Region, samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if region.Contains(s.Lat, s.Lon) {
			out = append(out, s)
		}
	}
	return out
}

// FilterRegion normalizes longitudes, then applies the coarse and precise
// filters in sequence. The input slice is not modified.
func FilterRegion(region *Region, samples []Sample) FilterResult {
	normalized := make([]Sample, len(samples))
	for i, s := range samples {
		s.Lon = NormalizeLongitude(s.Lon)
		normalized[i] = s
	}
	coarse := CoarseFilter(region.BoundingBox(), normalized)
	precise := PreciseFilter(region, coarse)
	return FilterResult{
		Region:   region,
		Samples:  precise,
		Input:    len(samples),
		Coarse:   len(coarse),
		Retained: len(precise),
	}
}

// FilterLevel keeps samples at the given level index.
func FilterLevel(samples []Sample, level int) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Level == level {
			out = append(out, s)
		}
	}
	return out
}

// FilterBelow keeps samples whose first value is strictly below limit. Soil
// moisture is 1 over oceans and lakes, so a limit of 1 drops water cells.
func FilterBelow(samples []Sample, limit float64) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Value() < limit {
			out = append(out, s)
		}
	}
	return out
}

// DropNaN removes samples with any non-finite value.
func DropNaN(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
outer:
	for _, s := range samples {
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue outer
			}
		}
		out = append(out, s)
	}
	return out
}
