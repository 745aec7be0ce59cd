// Package assemble builds the ACG output tables from classified input
// tables according to the compiled mapping rules.
package assemble

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mhaslett/acgbridge/internal/config"
	"github.com/mhaslett/acgbridge/internal/model"
	"github.com/mhaslett/acgbridge/internal/transform"
)

// TransformationError locates a failed transformation precisely enough to
// find the offending input value: target file, source label, source row
// index (0-based within its table), input column, and function name.
type TransformationError struct {
	Target   model.TargetFile
	Label    string
	Row      int
	Column   string
	Function string
	Err      error
}

func (e *TransformationError) Error() string {
	loc := fmt.Sprintf("%s row %d", e.Target, e.Row)
	if e.Label != "" {
		loc = fmt.Sprintf("%s label %q row %d", e.Target, e.Label, e.Row)
	}
	return fmt.Sprintf("transformation %q failed at %s (column %q): %s",
		e.Function, loc, e.Column, e.Err)
}

func (e *TransformationError) Unwrap() error { return e.Err }

// Run assembles one row collection per output target from the compiled
// rules. Single-source targets are generated straight off the designated
// patient-level table; multi-source targets are built per SourceLabel group
// and stacked. Cancellation is honored at row boundaries, never mid-row.
func Run(ctx context.Context, log zerolog.Logger, reg *config.Registry, funcs *transform.Registry,
	rules []model.MappingRule, tables map[string]*model.Table) (map[model.TargetFile][]model.AssembledRow, error) {

	out := make(map[model.TargetFile][]model.AssembledRow)

	for _, target := range model.AllTargets {
		targetRules := rulesFor(rules, target)
		if len(targetRules) == 0 {
			continue
		}

		if target.MultiSource() {
			rows, err := assembleStacked(ctx, log, reg, funcs, target, targetRules, tables)
			if err != nil {
				return nil, err
			}
			out[target] = rows
			continue
		}

		table, ok := tables[reg.PatientInput]
		if !ok {
			return nil, fmt.Errorf("assemble %s: input %q has no matched file", target, reg.PatientInput)
		}
		rows, err := assembleBlock(ctx, reg, funcs, target, "", targetRules, table)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("target", string(target)).
			Int("rows", len(rows)).
			Msg("assembled single-source target")
		out[target] = rows
	}

	return out, nil
}

// assembleStacked partitions the target's rules by SourceLabel (in the order
// labels first appear in the compiled sequence), assembles each label's
// block independently off that label's input table, and concatenates the
// blocks. Blocks are row-level unions: rows from different labels are
// stacked, never merged into each other.
func assembleStacked(ctx context.Context, log zerolog.Logger, reg *config.Registry, funcs *transform.Registry,
	target model.TargetFile, rules []model.MappingRule, tables map[string]*model.Table) ([]model.AssembledRow, error) {

	var labels []string
	byLabel := make(map[string][]model.MappingRule)
	for _, r := range rules {
		if _, seen := byLabel[r.SourceLabel]; !seen {
			labels = append(labels, r.SourceLabel)
		}
		byLabel[r.SourceLabel] = append(byLabel[r.SourceLabel], r)
	}

	var out []model.AssembledRow
	for _, label := range labels {
		group := byLabel[label]
		inputKey := group[0].InputKey // compiler guarantees one key per group
		table, ok := tables[inputKey]
		if !ok {
			return nil, fmt.Errorf("assemble %s label %q: input %q has no matched file", target, label, inputKey)
		}
		block, err := assembleBlock(ctx, reg, funcs, target, label, group, table)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("target", string(target)).
			Str("label", label).
			Str("input", inputKey).
			Int("rows", len(block)).
			Msg("assembled label block")
		out = append(out, block...)
	}
	return out, nil
}

// assembleBlock runs the single-source algorithm: one output row per source
// row, in source order, applying every rule of the block to each row. The
// merge-key value is carried through unchanged so downstream joins can
// anchor on it.
func assembleBlock(ctx context.Context, reg *config.Registry, funcs *transform.Registry,
	target model.TargetFile, label string, rules []model.MappingRule, table *model.Table) ([]model.AssembledRow, error) {

	out := make([]model.AssembledRow, 0, len(table.Rows))
	for i, src := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := model.AssembledRow{
			Cells:    make(map[string]string, len(rules)),
			MergeKey: src[reg.MergeKey],
			Label:    label,
		}
		for _, r := range rules {
			value, err := applyRule(funcs, r, src)
			if err != nil {
				return nil, &TransformationError{
					Target:   target,
					Label:    label,
					Row:      i,
					Column:   r.InputColumn,
					Function: r.Transform,
					Err:      err,
				}
			}
			row.Cells[r.TargetColumn] = value
		}
		out = append(out, row)
	}
	return out, nil
}

// applyRule computes one output cell: a direct copy, a transformed copy, or
// a generated value when the rule names no input column.
func applyRule(funcs *transform.Registry, r model.MappingRule, src model.Row) (string, error) {
	if r.Generator() {
		fn, _ := funcs.Generator(r.Transform)
		return fn()
	}
	value := src[r.InputColumn]
	if r.Transform == "" {
		return value, nil
	}
	fn, _ := funcs.Cell(r.Transform)
	return fn(value)
}

func rulesFor(rules []model.MappingRule, target model.TargetFile) []model.MappingRule {
	var out []model.MappingRule
	for _, r := range rules {
		if r.Target == target {
			out = append(out, r)
		}
	}
	return out
}
