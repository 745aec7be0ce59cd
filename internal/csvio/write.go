package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhaslett/acgbridge/internal/config"
	"github.com/mhaslett/acgbridge/internal/model"
)

// WriteOutput serializes one assembled table per its output spec: header row
// in exactly the spec's column order, each row's cells reordered to match,
// and cells no rule populated written as empty values. The file is staged
// under a temporary name in the destination directory and renamed into place
// once fully written, so the named output either exists complete or not at
// all. Returns the final path.
func WriteOutput(dir string, spec config.OutputSpec, rows []model.AssembledRow, timestamp string) (string, error) {
	name := strings.ReplaceAll(spec.Filename, "{timestamp}", timestamp)
	finalPath := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".acgbridge-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(spec.Columns); err != nil {
		return "", fmt.Errorf("write %s header: %w", spec.Target, err)
	}

	record := make([]string, len(spec.Columns))
	for _, row := range rows {
		for i, col := range spec.Columns {
			record[i] = row.Cells[col]
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write %s row: %w", spec.Target, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", spec.Target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		tmpPath = ""
		return "", fmt.Errorf("close %s: %w", spec.Target, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		tmpPath = ""
		return "", fmt.Errorf("finalize %s: %w", spec.Target, err)
	}
	tmpPath = "" // committed; nothing to clean up
	return finalPath, nil
}
