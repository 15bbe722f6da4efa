package pipeline_test

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// fakeDecoder serves grids by file base name.
type fakeDecoder struct {
	grids map[string]*domain.Grid
	calls []string
}

func (d *fakeDecoder) Decode(path string, _ []string) (*domain.Grid, error) {
	d.calls = append(d.calls, filepath.Base(path))
	g, ok := d.grids[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrInputNotFound)
	}
	return g, nil
}

type recordingSkipper struct {
	rows []csvio.RowError
}

func (s *recordingSkipper) SkipRows(_ string, rows []csvio.RowError) {
	s.rows = append(s.rows, rows...)
}

func squareRegion(t *testing.T, id string, minLon, minLat, maxLon, maxLat float64) *domain.Region {
	t.Helper()
	ring := geom.Path{
		{X: minLon, Y: minLat},
		{X: minLon, Y: maxLat},
		{X: maxLon, Y: maxLat},
		{X: maxLon, Y: minLat},
		{X: minLon, Y: minLat},
	}
	r, err := domain.NewRegion(id, geom.Polygon{ring}, map[string]string{"NAME": id})
	require.NoError(t, err)
	return r
}
