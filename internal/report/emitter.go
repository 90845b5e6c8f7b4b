package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Delimiter separates the fields of a report line.
const Delimiter = ';'

// Write writes the header and one line per row, in the given order.
// Fields holding the delimiter, a quote or a line break are quoted.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// WriteFile creates or replaces the report at path. The report is written to
// a temporary file next to path and renamed into place, so a failed write
// leaves any previous report untouched.
func WriteFile(path string, rows []Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary report: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Write(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary report: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
