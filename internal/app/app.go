// Package app wires configuration, logging, metrics and the optional
// health server around a batch command.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/httpadapter"
	"github.com/couchcryptid/forecast-geofilter/internal/config"
	"github.com/couchcryptid/forecast-geofilter/internal/observability"
	"github.com/couchcryptid/forecast-geofilter/internal/pipeline"
)

// Env is what a command body receives.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Runner  *pipeline.Runner
}

// Main loads configuration, runs body and returns the process exit code:
// 0 when every input succeeded, 1 otherwise.
func Main(tool string, body func(ctx context.Context, env *Env) error) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger, runID := observability.NewRunLogger(observability.NewLogger(cfg), tool)
	metrics := observability.NewMetrics()
	runner := pipeline.NewRunner(tool, runID, logger, metrics, clockwork.NewRealClock())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, runner, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	err = body(ctx, &Env{Config: cfg, Logger: logger, Metrics: metrics, Runner: runner})

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Error("http server shutdown error", "error", serr)
		}
		cancel()
	}
	if cfg.MetricsTextfile != "" {
		if werr := observability.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Error("metrics textfile error", "error", werr)
		}
	}
	return ExitCode(logger, err)
}

// ExitCode logs the outcome of a run and maps it to a process exit code.
func ExitCode(logger *slog.Logger, err error) int {
	var batchErr *pipeline.BatchError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &batchErr):
		logger.Error("batch finished with failures", "failed", batchErr.Failed, "total", batchErr.Total)
		return 1
	case errors.Is(err, context.Canceled):
		logger.Warn("run interrupted")
		return 1
	default:
		logger.Error("run failed", "error", err)
		return 1
	}
}

// Inputs returns the files matching pattern in dir, sorted by name.
func Inputs(dir, pattern string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	files := paths[:0]
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files, nil
}

// StringList is a repeatable string flag.
type StringList []string

func (l *StringList) String() string {
	return strings.Join(*l, ", ")
}

// Set appends one value.
func (l *StringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}
