// Package store provides the file-backed stores the pipeline persists
// its state in: the tabular billing log and the keyed JSON documents
// for pending, sent and delivery tracking.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// EnsureCSV creates a tabular file with the given header if it does not
// exist. Existing files are never touched, let alone truncated. It
// reports whether the file was created.
func EnsureCSV(path string, header []string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create directory for %q: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false, fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return false, fmt.Errorf("write header of %q: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("flush %q: %w", path, err)
	}
	return true, nil
}

// CSVRows returns the data rows of a tabular file, header excluded.
func CSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// AppendCSV appends rows to an existing tabular file, suppressing any
// row that exactly duplicates one already present. All columns take
// part in the comparison. It returns how many rows were newly written;
// zero distinguishes a no-new-data run from an append.
//
// The dedup scan is O(existing x incoming), which is fine at the scale
// of a billing period (hundreds of rows). Larger callers should index
// by a composite key instead.
func AppendCSV(path string, rows [][]string) (int, error) {
	existing, err := CSVRows(path)
	if err != nil {
		return 0, err
	}

	var fresh [][]string
	for _, row := range rows {
		if !containsRow(existing, row) && !containsRow(fresh, row) {
			fresh = append(fresh, row)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %q for append: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(fresh); err != nil {
		return 0, fmt.Errorf("append to %q: %w", path, err)
	}
	return len(fresh), nil
}

func containsRow(rows [][]string, row []string) bool {
	for _, r := range rows {
		if slices.Equal(r, row) {
			return true
		}
	}
	return false
}
