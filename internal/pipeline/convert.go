package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/observability"
)

// PointPublisher sends the points of a converted document downstream.
type PointPublisher interface {
	Publish(ctx context.Context, source string, doc domain.PointDocument) (int, error)
}

// Converter turns point-forecast CSV files into JSON documents and JSON
// documents back into CSV, picking the direction from the file extension.
type Converter struct {
	outDir    string
	publisher PointPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewConverter creates a Converter writing into outDir. A nil publisher
// disables publishing.
func NewConverter(outDir string, publisher PointPublisher, logger *slog.Logger, metrics *observability.Metrics) *Converter {
	return &Converter{outDir: outDir, publisher: publisher, logger: logger, metrics: metrics}
}

// ProcessFile converts one file.
func (c *Converter) ProcessFile(ctx context.Context, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return c.toJSON(ctx, path)
	case ".json":
		return c.toCSV(path)
	default:
		return fmt.Errorf("%s: want .csv or .json: %w", path, domain.ErrSchemaMismatch)
	}
}

func (c *Converter) toJSON(ctx context.Context, path string) error {
	rows, err := csvio.ReadPointRows(path)
	if err != nil {
		return err
	}
	doc, err := domain.BuildPointDocument(rows)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	out := filepath.Join(c.outDir, stem(path)+".json")
	if err := WritePointDocument(out, doc); err != nil {
		return err
	}
	c.logger.Info("point document written", "file", out, "rows", len(rows), "points", len(doc.Data))

	if c.publisher == nil {
		return nil
	}
	n, err := c.publisher.Publish(ctx, filepath.Base(out), doc)
	c.metrics.RecordsPublished.Add(float64(n))
	if err != nil {
		return err
	}
	c.logger.Info("point document published", "file", out, "messages", n)
	return nil
}

func (c *Converter) toCSV(path string) error {
	doc, err := ReadPointDocument(path)
	if err != nil {
		return err
	}
	rows, err := domain.DocumentRows(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	out := filepath.Join(c.outDir, stem(path)+".csv")
	if err := csvio.WritePointRows(out, rows); err != nil {
		return err
	}
	c.logger.Info("point rows written", "file", out, "points", len(doc.Data), "rows", len(rows))
	return nil
}

// stem is the base name up to its first dot.
func stem(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

// ReadPointDocument decodes a point-forecast JSON file.
func ReadPointDocument(path string) (domain.PointDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.PointDocument{}, fmt.Errorf("%s: %w", path, domain.ErrInputNotFound)
		}
		return domain.PointDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	var doc domain.PointDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.PointDocument{}, fmt.Errorf("%s: %v: %w", path, err, domain.ErrSchemaMismatch)
	}
	if doc.Meta.UnitSystem != domain.UnitSystemSI {
		return domain.PointDocument{}, fmt.Errorf("%s: unit system %q: %w", path, doc.Meta.UnitSystem, domain.ErrSchemaMismatch)
	}
	return doc, nil
}

// WritePointDocument writes doc as indented JSON.
func WritePointDocument(path string, doc domain.PointDocument) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
