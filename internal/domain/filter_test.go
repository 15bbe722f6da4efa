package domain

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoarseIsSupersetOfPrecise(t *testing.T) {
	regions := map[string]geom.Polygonal{
		"triangle": geom.Polygon{{{X: 8, Y: 51}, {X: 9.5, Y: 51}, {X: 8, Y: 53}, {X: 8, Y: 51}}},
		"donut":    geom.Polygon{square(0, 0, 10, 10), square(4, 4, 6, 6)},
		"islands": geom.MultiPolygon{
			{square(170, -20, 179, -10)},
			{square(-179, -20, -170, -10)},
		},
	}

	var samples []Sample
	for lat := -25.0; lat <= 60; lat += 0.5 {
		for lon := 0.0; lon < 360; lon += 0.5 {
			samples = append(samples, Sample{Lat: lat, Lon: NormalizeLongitude(lon), Values: []float64{1}})
		}
	}

	for name, g := range regions {
		t.Run(name, func(t *testing.T) {
			r := mustRegion(t, name, g, nil)
			coarse := CoarseFilter(r.BoundingBox(), samples)
			inCoarse := make(map[CellKey]bool, len(coarse))
			for _, s := range coarse {
				inCoarse[KeyOf(s)] = true
			}

			precise := PreciseFilter(r, samples)
			require.NotEmpty(t, precise)
			for _, s := range precise {
				assert.True(t, inCoarse[KeyOf(s)], "precise sample %v missing from coarse result", KeyOf(s))
			}
		})
	}
}

func TestFilterRegionPolygonExcludesPointInsideBox(t *testing.T) {
	// The box spans lat 51..53, lon 8..9.5 and covers (52, 9); the hypotenuse
	// passes through (52, 8.75), leaving (52, 9) outside the polygon.
	r := mustRegion(t, "wedge", geom.Polygon{{{X: 8, Y: 51}, {X: 9.5, Y: 51}, {X: 8, Y: 53}, {X: 8, Y: 51}}}, nil)

	grid := &Grid{
		Lats: []float64{52},
		Lons: []float64{9},
		Fields: map[string]*Field{
			"TMP_P0_L103_GLL0": {Code: "TMP_P0_L103_GLL0", Units: "K", Levels: 1, Values: []float64{290.5}},
		},
	}
	samples, err := grid.Samples("TMP_P0_L103_GLL0")
	require.NoError(t, err)

	res := FilterRegion(r, samples)
	assert.Equal(t, 1, res.Input)
	assert.Equal(t, 1, res.Coarse)
	assert.Equal(t, 0, res.Retained)
	assert.Empty(t, res.Samples)
}

func TestFilterFarPointRejectedByCoarse(t *testing.T) {
	r := mustRegion(t, "tx", geom.Polygon{square(-100, 30, -90, 40)}, nil)
	assert.Empty(t, CoarseFilter(r.BoundingBox(), []Sample{{Lat: -35, Lon: 150}}))
}

func TestFilterPreservesOrder(t *testing.T) {
	r := mustRegion(t, "sq", geom.Polygon{square(0, 0, 10, 10)}, nil)
	in := []Sample{
		{Lat: 3, Lon: 3, Values: []float64{1}},
		{Lat: 20, Lon: 3, Values: []float64{2}},
		{Lat: 1, Lon: 9, Values: []float64{3}},
		{Lat: 5, Lon: 5, Values: []float64{4}},
	}
	res := FilterRegion(r, in)
	require.Len(t, res.Samples, 3)
	assert.Equal(t, []float64{1, 3, 4}, []float64{res.Samples[0].Value(), res.Samples[1].Value(), res.Samples[2].Value()})
}

func TestValueFilters(t *testing.T) {
	in := []Sample{
		{Level: 0, Values: []float64{0.3}},
		{Level: 0, Values: []float64{1}},
		{Level: 1, Values: []float64{0.2}},
		{Level: 0, Values: []float64{math.NaN()}},
		{Level: 0},
	}

	assert.Len(t, FilterLevel(in, 0), 4)
	assert.Len(t, FilterLevel(in, 1), 1)
	// NaN compares false, so FilterBelow drops it too.
	assert.Len(t, FilterBelow(in, 1), 2)
	assert.Len(t, DropNaN(in), 4)
}
