package domain

import "math"

// CellKey identifies a grid cell by its coordinates.
type CellKey struct {
	Lat float64
	Lon float64
}

// KeyOf returns the cell key of a sample.
func KeyOf(s Sample) CellKey {
	return CellKey{Lat: s.Lat, Lon: s.Lon}
}

// BinCoordinate floors x onto a grid of the given step. A non-positive step
// returns x unchanged.
func BinCoordinate(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	return math.Floor(x/step) * step
}

// DedupeCells keeps the first sample for each binned (lat, lon) cell. Samples
// keep their original coordinates; binning only decides what counts as a
// duplicate.
func DedupeCells(samples []Sample, step float64) []Sample {
	seen := make(map[CellKey]struct{}, len(samples))
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		k := CellKey{Lat: BinCoordinate(s.Lat, step), Lon: BinCoordinate(s.Lon, step)}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Accumulations holds the last accumulated value seen for each cell.
type Accumulations map[CellKey]float64

// Deaccumulate converts values accumulated since issuance into per-interval
// amounts by subtracting the previous file's value for the same cell. Cells
// with no previous value keep their accumulated value. It returns the
// converted samples and the accumulations to pass on to the next file.
func Deaccumulate(samples []Sample, previous Accumulations) ([]Sample, Accumulations) {
	next := make(Accumulations, len(samples))
	out := make([]Sample, len(samples))
	for i, s := range samples {
		acc := s.Value()
		next[KeyOf(s)] = acc
		if prev, ok := previous[KeyOf(s)]; ok && len(s.Values) > 0 {
			values := append([]float64(nil), s.Values...)
			values[0] = acc - prev
			s.Values = values
		}
		out[i] = s
	}
	return out, next
}
