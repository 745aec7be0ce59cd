package model

// MappingRule is the atomic unit of the mapping specification: one output
// cell producer. Rules are flat records; all validation lives in the
// mapping compiler.
type MappingRule struct {
	// Line is the 1-based line number in mapping.csv, kept for error reports.
	Line int

	InputKey     string     // InputConfigKey: referenced input definition
	InputColumn  string     // source column, or "" for generator rules
	Target       TargetFile // TargetACGFile
	TargetColumn string     // TargetACGColumn
	Transform    string     // TransformationFunction name, or ""
	SourceLabel  string     // grouping tag for multi-source targets, or ""
}

// Generator reports whether the rule derives its value without a source
// column (a zero-input transformation).
func (r MappingRule) Generator() bool {
	return r.InputColumn == ""
}
