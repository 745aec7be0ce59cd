package mapping

import (
	"fmt"
	"strings"

	"github.com/mhaslett/acgbridge/internal/config"
	"github.com/mhaslett/acgbridge/internal/model"
	"github.com/mhaslett/acgbridge/internal/transform"
)

// RuleError is one configuration finding against a specific mapping line.
type RuleError struct {
	Line int
	Msg  string
}

func (e RuleError) Error() string {
	return fmt.Sprintf("mapping line %d: %s", e.Line, e.Msg)
}

// CompileError aggregates every finding from one compilation pass, so a
// deployer can fix the whole mapping file in one go.
type CompileError struct {
	Findings []RuleError
}

func (e *CompileError) Error() string {
	msgs := make([]string, len(e.Findings))
	for i, f := range e.Findings {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("mapping compilation failed with %d finding(s):\n%s",
		len(e.Findings), strings.Join(msgs, "\n"))
}

// Compile validates parsed rules against the schema and transformation
// registries. It is a pure function of its inputs: the same rules and
// registries always yield the same rule sequence (in input order) or the
// same finding set. On failure every violated invariant is reported, not
// just the first.
func Compile(rules []model.MappingRule, reg *config.Registry, funcs *transform.Registry) ([]model.MappingRule, error) {
	var findings []RuleError
	fail := func(line int, format string, args ...any) {
		findings = append(findings, RuleError{Line: line, Msg: fmt.Sprintf(format, args...)})
	}

	type producer struct {
		target model.TargetFile
		column string
		label  string
	}
	producers := make(map[producer]int) // → first declaring line

	type group struct {
		target model.TargetFile
		label  string
	}
	groupInput := make(map[group]model.MappingRule) // → first rule of the group

	for _, r := range rules {
		def, known := reg.DefinitionFor(r.InputKey)
		if !known {
			fail(r.Line, "unknown InputConfigKey %q", r.InputKey)
		}

		if r.InputColumn != "" && known && !def.Contains(r.InputColumn) {
			fail(r.Line, "InputColumn %q does not exist in input %q", r.InputColumn, r.InputKey)
		}

		if _, ok := model.TargetByName(string(r.Target)); !ok {
			fail(r.Line, "unknown TargetACGFile %q", r.Target)
			continue // remaining checks assume a valid target
		}

		if r.TargetColumn == "" {
			fail(r.Line, "TargetACGColumn is required")
		}

		// A blank InputColumn is only meaningful for a generator rule.
		if r.Generator() && r.Transform == "" {
			fail(r.Line, "rule has neither InputColumn nor TransformationFunction")
		}

		if r.Transform != "" {
			if r.Generator() {
				if _, ok := funcs.Generator(r.Transform); !ok {
					if _, isCell := funcs.Cell(r.Transform); isCell {
						fail(r.Line, "transformation %q requires an InputColumn", r.Transform)
					} else {
						fail(r.Line, "unknown TransformationFunction %q", r.Transform)
					}
				}
			} else {
				if _, ok := funcs.Cell(r.Transform); !ok {
					if _, isGen := funcs.Generator(r.Transform); isGen {
						fail(r.Line, "transformation %q takes no InputColumn", r.Transform)
					} else {
						fail(r.Line, "unknown TransformationFunction %q", r.Transform)
					}
				}
			}
		}

		if r.Target.MultiSource() {
			if r.SourceLabel == "" {
				fail(r.Line, "%s rules require a SourceLabel", r.Target)
			}
		} else if known && r.InputKey != reg.PatientInput {
			fail(r.Line, "%s rules must use InputConfigKey %q, got %q", r.Target, reg.PatientInput, r.InputKey)
		}

		// Duplicate output-cell producers would silently overwrite each other.
		p := producer{target: r.Target, column: r.TargetColumn, label: r.SourceLabel}
		if first, dup := producers[p]; dup {
			fail(r.Line, "duplicate producer for %s.%s (label %q), first declared on line %d",
				r.Target, r.TargetColumn, r.SourceLabel, first)
		} else {
			producers[p] = r.Line
		}

		// All rules in one (target, label) group must share an input, or the
		// group has no computable join basis.
		g := group{target: r.Target, label: r.SourceLabel}
		if first, ok := groupInput[g]; ok {
			if first.InputKey != r.InputKey {
				fail(r.Line, "SourceLabel %q for %s maps to both %q (line %d) and %q",
					r.SourceLabel, r.Target, first.InputKey, first.Line, r.InputKey)
			}
		} else {
			groupInput[g] = r
		}
	}

	if len(findings) > 0 {
		return nil, &CompileError{Findings: findings}
	}
	return rules, nil
}

// RequiredInputs returns the distinct InputConfigKeys the rule set reads
// from, in first-appearance order.
func RequiredInputs(rules []model.MappingRule) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rules {
		if !seen[r.InputKey] {
			seen[r.InputKey] = true
			keys = append(keys, r.InputKey)
		}
	}
	return keys
}
