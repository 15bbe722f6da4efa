package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"

	"github.com/couchcryptid/forecast-geofilter/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// NewRunLogger tags every record with the tool name and a fresh run_id so the
// lines of one batch run can be grouped.
func NewRunLogger(base *slog.Logger, tool string) (*slog.Logger, string) {
	runID := uuid.NewString()
	return base.With("tool", tool, "run_id", runID), runID
}
