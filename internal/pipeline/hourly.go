package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// RowSkipper records rows an input file could not use.
type RowSkipper interface {
	SkipRows(path string, rows []csvio.RowError)
}

// HourlyPrefix names the hourly-position file written for a GPS report file.
const HourlyPrefix = "hourly-positions-"

// HourlyPositions reduces GPS report files to one position per hour.
type HourlyPositions struct {
	outDir  string
	skipper RowSkipper
	logger  *slog.Logger
}

// NewHourlyPositions creates the hourly pass writing into outDir.
func NewHourlyPositions(outDir string, skipper RowSkipper, logger *slog.Logger) *HourlyPositions {
	return &HourlyPositions{outDir: outDir, skipper: skipper, logger: logger}
}

// ProcessFile writes hourly-positions-<name> for one report file.
func (h *HourlyPositions) ProcessFile(_ context.Context, path string) error {
	positions, skipped, err := csvio.ReadPositions(path)
	if err != nil {
		return err
	}
	h.skipper.SkipRows(path, skipped)

	hourly := domain.DedupeHourly(positions, func(p domain.Position) time.Time { return p.Reported })
	out := filepath.Join(h.outDir, HourlyPrefix+filepath.Base(path))
	if err := csvio.WriteHourly(out, hourly); err != nil {
		return err
	}
	h.logger.Info("hourly positions written", "file", out, "reports", len(positions), "hours", len(hourly))
	return nil
}
