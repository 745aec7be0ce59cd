package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mhaslett/acgbridge/internal/model"
)

// InputDefinition describes one recognized input file schema: a symbolic key
// and the exact set of column names a file must carry to classify as it.
type InputDefinition struct {
	Key     string   `yaml:"key"`
	Columns []string `yaml:"columns"`
}

// Contains reports whether the definition's column set includes col.
// Comparison is case- and whitespace-sensitive.
func (d InputDefinition) Contains(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// OutputSpec describes one target output file: its kind, the exact ordered
// column list the emitted file must carry, and the filename template.
// The template's "{timestamp}" placeholder expands to the run start time.
type OutputSpec struct {
	Target   model.TargetFile `yaml:"target"`
	Filename string           `yaml:"filename"`
	Columns  []string         `yaml:"columns"`
}

// Registry is the static schema catalogue for a run: input definitions,
// output specs, the merge key, and the designated patient-level input.
// Loaded once at startup and treated as read-only afterwards.
type Registry struct {
	MergeKey     string            `yaml:"merge_key"`
	PatientInput string            `yaml:"patient_input"`
	Inputs       []InputDefinition `yaml:"inputs"`
	Outputs      []OutputSpec      `yaml:"outputs"`
}

// LoadRegistry reads a YAML registry file and validates it.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// DefinitionFor returns the input definition for the given key, or ok=false.
func (r *Registry) DefinitionFor(key string) (InputDefinition, bool) {
	for _, d := range r.Inputs {
		if d.Key == key {
			return d, true
		}
	}
	return InputDefinition{}, false
}

// SpecFor returns the output spec for the given target, or ok=false.
func (r *Registry) SpecFor(target model.TargetFile) (OutputSpec, bool) {
	for _, s := range r.Outputs {
		if s.Target == target {
			return s, true
		}
	}
	return OutputSpec{}, false
}

// Validate checks the registry's internal invariants:
//   - at least one input definition, each with a unique key and a non-empty column set;
//   - the merge key is present in every input definition's column set;
//   - no two definitions share an identical column set (the matcher could not
//     disambiguate them);
//   - the designated patient-level input resolves;
//   - every output spec names a known target kind, at most once, with columns.
func (r *Registry) Validate() error {
	if r.MergeKey == "" {
		return fmt.Errorf("registry: merge_key is required")
	}
	if len(r.Inputs) == 0 {
		return fmt.Errorf("registry: at least one input definition is required")
	}

	seenKeys := make(map[string]bool)
	seenSets := make(map[string]string) // canonical column set → key
	for _, d := range r.Inputs {
		if d.Key == "" {
			return fmt.Errorf("registry: input definition with empty key")
		}
		if seenKeys[d.Key] {
			return fmt.Errorf("registry: duplicate input definition %q", d.Key)
		}
		seenKeys[d.Key] = true
		if len(d.Columns) == 0 {
			return fmt.Errorf("registry: input %q has no columns", d.Key)
		}
		if !d.Contains(r.MergeKey) {
			return fmt.Errorf("registry: input %q is missing merge key column %q", d.Key, r.MergeKey)
		}
		sig := columnSetSignature(d.Columns)
		if other, dup := seenSets[sig]; dup {
			return fmt.Errorf("registry: inputs %q and %q share an identical column set", other, d.Key)
		}
		seenSets[sig] = d.Key
	}

	if r.PatientInput == "" {
		return fmt.Errorf("registry: patient_input is required")
	}
	if !seenKeys[r.PatientInput] {
		return fmt.Errorf("registry: patient_input %q is not a defined input", r.PatientInput)
	}

	seenTargets := make(map[model.TargetFile]bool)
	for _, s := range r.Outputs {
		if _, ok := model.TargetByName(string(s.Target)); !ok {
			return fmt.Errorf("registry: unknown output target %q", s.Target)
		}
		if seenTargets[s.Target] {
			return fmt.Errorf("registry: duplicate output spec for %q", s.Target)
		}
		seenTargets[s.Target] = true
		if s.Filename == "" {
			return fmt.Errorf("registry: output %q has no filename template", s.Target)
		}
		if len(s.Columns) == 0 {
			return fmt.Errorf("registry: output %q has no columns", s.Target)
		}
	}

	return nil
}

// columnSetSignature canonicalizes a column list for set-equality comparison.
// Duplicate entries collapse; order is irrelevant.
func columnSetSignature(cols []string) string {
	uniq := make(map[string]bool, len(cols))
	for _, c := range cols {
		uniq[c] = true
	}
	keys := make([]string, 0, len(uniq))
	for c := range uniq {
		keys = append(keys, c)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x00")
}
