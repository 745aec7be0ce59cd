// Package csvio reads delimited extract files and writes the assembled ACG
// output files.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mhaslett/acgbridge/internal/model"
)

// Load reads a delimited file into its header and rows. Header text is kept
// verbatim (no case or whitespace normalization) so classification stays
// strict. Rows shorter than the header leave the trailing cells empty.
func Load(path string) (header []string, rows []model.Row, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err = cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("input file %s is empty", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	// Strip a UTF-8 byte order mark; Windows exports often carry one.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	line := 1
	for {
		record, rerr := cr.Read()
		if rerr == io.EOF {
			break
		}
		line++
		if rerr != nil {
			return nil, nil, fmt.Errorf("read %s line %d: %w", path, line, rerr)
		}
		if len(record) > len(header) {
			return nil, nil, fmt.Errorf("%s line %d has %d fields, header has %d",
				path, line, len(record), len(header))
		}
		row := make(model.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
