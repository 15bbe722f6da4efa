package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinCoordinate(t *testing.T) {
	assert.Equal(t, 52.5, BinCoordinate(52.9, 0.75))
	assert.Equal(t, -1.5, BinCoordinate(-0.9, 0.75))
	assert.Equal(t, 52.9, BinCoordinate(52.9, 0))
}

func TestDedupeCells(t *testing.T) {
	in := []Sample{
		{Lat: 1, Lon: 1, Values: []float64{1}},
		{Lat: 1, Lon: 1, Values: []float64{2}},
		{Lat: 1.2, Lon: 1.1, Values: []float64{3}},
		{Lat: 2, Lon: 1, Values: []float64{4}},
	}

	exact := DedupeCells(in, 0)
	require.Len(t, exact, 3)
	assert.Equal(t, 1.0, exact[0].Value())

	binned := DedupeCells(in, 0.75)
	require.Len(t, binned, 2)
	assert.Equal(t, 1.0, binned[0].Value())
	assert.Equal(t, 4.0, binned[1].Value())
}

func TestDeaccumulate(t *testing.T) {
	first := []Sample{
		{Lat: 1, Lon: 1, Values: []float64{2}},
		{Lat: 1, Lon: 2, Values: []float64{5}},
	}
	out, acc := Deaccumulate(first, nil)
	assert.Equal(t, first, out)

	second := []Sample{
		{Lat: 1, Lon: 1, Values: []float64{3.5}},
		{Lat: 1, Lon: 2, Values: []float64{5}},
		{Lat: 1, Lon: 3, Values: []float64{7}},
	}
	out, acc = Deaccumulate(second, acc)
	require.Len(t, out, 3)
	assert.Equal(t, 1.5, out[0].Value())
	assert.Equal(t, 0.0, out[1].Value())
	assert.Equal(t, 7.0, out[2].Value(), "cell without a previous value keeps its accumulation")
	assert.Equal(t, 3.5, second[0].Value(), "input is not modified")
	assert.Equal(t, 3.5, acc[CellKey{Lat: 1, Lon: 1}])
}
