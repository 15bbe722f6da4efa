// Package csvio reads and writes the CSV files exchanged between the batch
// tools: GPS reports, hourly positions, point forecasts and region samples.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// RowError records a data row that was skipped. Line is 1-based and counts the
// header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// table is a parsed CSV file with a header index.
type table struct {
	path   string
	header []string
	colIdx map[string]int
	rows   [][]string
}

func readTable(path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrInputNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file: %w", path, domain.ErrSchemaMismatch)
		}
		return nil, fmt.Errorf("read %s header: %v: %w", path, err, domain.ErrSchemaMismatch)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", path, err, domain.ErrSchemaMismatch)
	}

	t := &table{path: path, header: header, colIdx: make(map[string]int, len(header)), rows: rows}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.colIdx[h] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := t.colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing columns %s: %w", path, strings.Join(missing, ", "), domain.ErrSchemaMismatch)
	}
	return t, nil
}

func (t *table) get(row []string, col string) string {
	i, ok := t.colIdx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) float(row []string, col string) (float64, error) {
	s := t.get(row, col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number: %w", col, s, domain.ErrSchemaMismatch)
	}
	return v, nil
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// FormatFloat renders a value with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
