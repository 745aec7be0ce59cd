// Package pipeline orchestrates one processing run: compile → classify →
// missing-input check → assemble → emit, as a sequential phase pipeline.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mhaslett/acgbridge/internal/assemble"
	"github.com/mhaslett/acgbridge/internal/classify"
	"github.com/mhaslett/acgbridge/internal/config"
	"github.com/mhaslett/acgbridge/internal/csvio"
	"github.com/mhaslett/acgbridge/internal/mapping"
	"github.com/mhaslett/acgbridge/internal/model"
	"github.com/mhaslett/acgbridge/internal/transform"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ClassificationReport aggregates every per-file classification failure so
// the user gets the full picture in one pass.
type ClassificationReport struct {
	Failures []*classify.MatchError
}

func (e *ClassificationReport) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d input file(s) could not be classified:\n%s",
		len(e.Failures), strings.Join(msgs, "\n"))
}

// MissingInputError lists every input type the compiled rules require that
// no supplied file classified as, consolidated before any assembly work.
type MissingInputError struct {
	Keys []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input file(s): %s", strings.Join(e.Keys, ", "))
}

// Options holds the per-run inputs resolved by the caller.
type Options struct {
	MappingPath string
	InputPaths  []string
	OutDir      string
}

// Run executes the full pipeline and returns a summary of what was produced.
// Configuration problems surface before any per-file work; classification
// and missing-input findings are aggregated; transformation and IO failures
// abort immediately so no silently incomplete output is presented.
func Run(ctx context.Context, log zerolog.Logger, reg *config.Registry, funcs *transform.Registry, opts Options) (*model.RunSummary, error) {
	totalStart := time.Now()
	runID := uuid.New()
	log = log.With().Str("run_id", runID.String()).Logger()

	// Phase 1: Compile the mapping. Unresolved references are configuration
	// errors and must never surface mid-run.
	log.Info().Str("mapping", opts.MappingPath).Msg("compiling mapping")
	compileStart := time.Now()
	rawRules, err := mapping.ParseFile(opts.MappingPath)
	if err != nil {
		return nil, &PipelineError{Phase: "compile", Err: err}
	}
	rules, err := mapping.Compile(rawRules, reg, funcs)
	if err != nil {
		return nil, &PipelineError{Phase: "compile", Err: err}
	}
	compileDur := time.Since(compileStart)
	log.Info().Int("rules", len(rules)).Dur("duration", compileDur).Msg("mapping compiled")

	// Phase 2: Classify every supplied file. One file's failure does not
	// stop classification of the rest.
	classifyStart := time.Now()
	tables := make(map[string]*model.Table)
	inputs := make(map[string]string)
	var rowsRead int64
	var failures []*classify.MatchError

	for _, path := range opts.InputPaths {
		if err := ctx.Err(); err != nil {
			return nil, &PipelineError{Phase: "classify", Err: err}
		}
		header, rows, err := csvio.Load(path)
		if err != nil {
			// IO failures abort immediately; continuing would hide them
			// behind classification noise.
			log.Error().Err(err).Str("file", path).Msg("failed to read input file")
			return nil, &PipelineError{Phase: "classify", Err: err}
		}
		key, merr := classify.Identify(path, header, reg)
		if merr != nil {
			failures = append(failures, merr)
			log.Error().Str("file", path).Msg(merr.Error())
			continue
		}
		if prev, dup := tables[key]; dup {
			failures = append(failures, &classify.MatchError{
				Path:      path,
				Duplicate: fmt.Sprintf("type %s already supplied by %s", key, prev.Path),
			})
			continue
		}
		tables[key] = &model.Table{Key: key, Path: path, Columns: header, Rows: rows}
		inputs[key] = path
		rowsRead += int64(len(rows))
		log.Info().Str("file", path).Str("type", key).Int("rows", len(rows)).Msg("input classified")
	}
	if len(failures) > 0 {
		return nil, &PipelineError{Phase: "classify", Err: &ClassificationReport{Failures: failures}}
	}
	classifyDur := time.Since(classifyStart)

	// Phase 3: Consolidated missing-input check before any transformation work.
	var missing []string
	for _, key := range mapping.RequiredInputs(rules) {
		if _, ok := tables[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &PipelineError{Phase: "inputs", Err: &MissingInputError{Keys: missing}}
	}

	// Phase 4: Assemble.
	log.Info().Msg("starting assembly")
	assembleStart := time.Now()
	assembled, err := assemble.Run(ctx, log, reg, funcs, rules, tables)
	if err != nil {
		return nil, &PipelineError{Phase: "assemble", Err: err}
	}
	assembleDur := time.Since(assembleStart)

	// Phase 5: Emit. Each file is staged and renamed, so a cancelled or
	// failed run leaves complete files or none for every target.
	emitStart := time.Now()
	timestamp := totalStart.Format("20060102_150405")
	rowsAssembled := make(map[model.TargetFile]int64)
	var outputFiles []string

	for _, target := range model.AllTargets {
		rows, ok := assembled[target]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, &PipelineError{Phase: "emit", Err: err}
		}
		spec, ok := reg.SpecFor(target)
		if !ok {
			return nil, &PipelineError{Phase: "emit", Err: fmt.Errorf("no output spec for %s", target)}
		}
		path, err := csvio.WriteOutput(opts.OutDir, spec, rows, timestamp)
		if err != nil {
			return nil, &PipelineError{Phase: "emit", Err: err}
		}
		rowsAssembled[target] = int64(len(rows))
		outputFiles = append(outputFiles, path)
		log.Info().Str("target", string(target)).Str("file", path).Int("rows", len(rows)).Msg("output written")
	}
	emitDur := time.Since(emitStart)

	summary := &model.RunSummary{
		RunID:            runID,
		Inputs:           inputs,
		RowsRead:         rowsRead,
		RowsAssembled:    rowsAssembled,
		OutputFiles:      outputFiles,
		DurationClassify: classifyDur,
		DurationCompile:  compileDur,
		DurationAssemble: assembleDur,
		DurationEmit:     emitDur,
		DurationTotal:    time.Since(totalStart),
	}

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int("outputs", len(summary.OutputFiles)).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("run complete")

	return summary, nil
}
