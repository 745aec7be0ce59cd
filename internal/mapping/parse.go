// Package mapping parses and compiles the external mapping specification
// (mapping.csv) into validated rules the assembly engine can execute.
package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mhaslett/acgbridge/internal/model"
)

// mapping.csv column names. The first four are required; the last two are
// optional per row and may be absent from the header entirely.
const (
	colInputKey     = "InputConfigKey"
	colInputColumn  = "InputColumn"
	colTargetFile   = "TargetACGFile"
	colTargetColumn = "TargetACGColumn"
	colTransform    = "TransformationFunction"
	colSourceLabel  = "SourceLabel"
)

var requiredHeader = []string{colInputKey, colInputColumn, colTargetFile, colTargetColumn}

// ParseFile reads mapping.csv from disk. See Parse.
func ParseFile(path string) ([]model.MappingRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping file: %w", err)
	}
	defer f.Close()
	rules, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("mapping file %s: %w", path, err)
	}
	return rules, nil
}

// Parse reads the raw mapping specification into uncompiled rules. Structural
// problems (missing header columns, ragged rows) fail here; referential
// validation against the registries happens in Compile.
func Parse(r io.Reader) ([]model.MappingRule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row width checked against the header below

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read mapping header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredHeader {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("mapping header is missing required columns: %s", strings.Join(missing, ", "))
	}

	field := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rules []model.MappingRule
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read mapping line %d: %w", line, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("mapping line %d has %d fields, header has %d", line, len(record), len(header))
		}
		rules = append(rules, model.MappingRule{
			Line:         line,
			InputKey:     field(record, colInputKey),
			InputColumn:  field(record, colInputColumn),
			Target:       model.TargetFile(field(record, colTargetFile)),
			TargetColumn: field(record, colTargetColumn),
			Transform:    field(record, colTransform),
			SourceLabel:  field(record, colSourceLabel),
		})
	}
	return rules, nil
}
