package model

// Row maps column name to the raw string value read from an extract.
type Row map[string]string

// Table is a loaded extract file bound to one input definition after
// classification. Rows keep the order they appeared in the file.
type Table struct {
	Key     string // input definition key, e.g. "Patient_Details"
	Path    string // source file path
	Columns []string
	Rows    []Row
}

// AssembledRow is one output row: output column name → final value, tagged
// with the merge-key value that produced it and the SourceLabel group it
// belongs to (empty for single-source targets).
type AssembledRow struct {
	Cells    map[string]string
	MergeKey string
	Label    string
}
